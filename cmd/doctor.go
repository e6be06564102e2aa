package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/agentbridge/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system environment and configuration health",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("agentbridge doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	// Config
	cfgPath := resolveConfigPath()
	fmt.Printf("  Config:   %s", cfgPath)
	if _, err := os.Stat(cfgPath); err != nil {
		fmt.Println(" (NOT FOUND, using defaults)")
	} else {
		fmt.Println(" (OK)")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Config load error: %s\n", err)
		return
	}

	// AWS
	fmt.Println()
	fmt.Println("  AWS:")
	fmt.Printf("    %-14s %s\n", "Region:", cfg.AWS.Region)
	fmt.Printf("    %-14s %s\n", "Model:", cfg.Agent.ModelID)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	checkCredentials(ctx, cfg.AWS)

	// Computer use
	fmt.Println()
	fmt.Println("  Computer use:")
	fmt.Printf("    %-14s %s %dx%d (display %s)\n", "Driver:", cfg.Display.Driver, cfg.Display.Width, cfg.Display.Height, cfg.Display.Display)
	switch cfg.Display.Driver {
	case "browser":
		checkBinary("chromium")
		checkBinary("google-chrome")
	default:
		checkBinary("xdotool")
		checkBinary("import")
	}
	checkBinary("sh")

	// Chat bot
	fmt.Println()
	fmt.Println("  Chat bot:")
	checkSetting("Agent:", cfg.BedrockAgent.AgentID != "" && cfg.BedrockAgent.AliasID != "")
	checkSetting("Restaurant API:", cfg.ActionGroups.RestaurantAPIBaseURL != "")
	checkSetting("SerpApi key:", cfg.ActionGroups.SerpAPIKey != "")
	checkSetting("Server token:", cfg.Server.Token != "")

	// Screenshots
	fmt.Println()
	if cfg.Screenshots.Dir != "" {
		fmt.Printf("  Screenshots: %s\n", config.ExpandHome(cfg.Screenshots.Dir))
	}
	if cfg.Screenshots.S3Bucket != "" {
		fmt.Printf("  Screenshots: s3://%s/%s\n", cfg.Screenshots.S3Bucket, cfg.Screenshots.S3Prefix)
	}

	fmt.Println()
	fmt.Println("Doctor check complete.")
}

func checkCredentials(ctx context.Context, c config.AWSConfig) {
	awsCfg, err := newAWSConfig(ctx, c)
	if err != nil {
		fmt.Printf("    %-14s %s\n", "Credentials:", err)
		return
	}
	creds, err := awsCfg.Credentials.Retrieve(ctx)
	if err != nil {
		fmt.Printf("    %-14s NOT FOUND\n", "Credentials:")
		return
	}
	fmt.Printf("    %-14s %s (%s)\n", "Credentials:", maskKey(creds.AccessKeyID), creds.Source)
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

func checkSetting(name string, configured bool) {
	status := "(not configured)"
	if configured {
		status = "configured"
	}
	fmt.Printf("    %-14s %s\n", name, status)
}

func checkBinary(name string) {
	path, err := exec.LookPath(name)
	if err != nil {
		fmt.Printf("    %-14s NOT FOUND\n", name+":")
	} else {
		fmt.Printf("    %-14s %s\n", name+":", path)
	}
}
