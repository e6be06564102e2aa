package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/agentbridge/internal/config"
)

func onboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Interactive setup wizard for AWS, computer use and the chat bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnboard()
		},
	}
}

const (
	featureComputerUse = "computer-use"
	featureChatBot     = "chat-bot"
	featureActions     = "action-groups"
)

func runOnboard() error {
	fmt.Println("agentbridge setup")
	fmt.Println()

	cfgPath := resolveConfigPath()
	cfg := config.Default()
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Found existing config at %s\n", cfgPath)
		useExisting, err := promptConfirm("Use existing config as base?", true)
		if err != nil {
			return err
		}
		if useExisting {
			if loaded, err := config.Load(cfgPath); err == nil {
				cfg = loaded
			} else {
				fmt.Printf("Warning: could not load existing config: %v\n", err)
			}
		}
	}

	region, err := promptString("AWS region", "Region with Bedrock model access", cfg.AWS.Region)
	if err != nil {
		return err
	}
	cfg.AWS.Region = region

	features, err := promptMultiSelect("What do you want to run?", "space to toggle, enter to confirm", []SelectOption[string]{
		{Label: "Computer use (desktop agent)", Value: featureComputerUse},
		{Label: "Chat-bot fallback (Lex → Bedrock agent)", Value: featureChatBot},
		{Label: "Agent action groups (bookings, books, restaurants)", Value: featureActions},
	}, []string{featureComputerUse})
	if err != nil {
		return err
	}

	for _, f := range features {
		switch f {
		case featureComputerUse:
			err = onboardComputerUse(cfg)
		case featureChatBot:
			err = onboardChatBot(cfg)
		case featureActions:
			err = onboardActions(cfg)
		}
		if err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return err
	}
	fmt.Printf("\nSaved %s\n", cfgPath)
	fmt.Println("Next: agentbridge doctor")
	return nil
}

func onboardComputerUse(cfg *config.Config) error {
	model, err := promptString("Model ID", "Bedrock model or inference profile", cfg.Agent.ModelID)
	if err != nil {
		return err
	}
	cfg.Agent.ModelID = model

	defaultIdx := 0
	if cfg.Display.Driver == "browser" {
		defaultIdx = 1
	}
	driver, err := promptSelect("Display driver", []SelectOption[string]{
		{Label: "X11 desktop (xdotool)", Value: "xdotool"},
		{Label: "Chromium via DevTools (headless capable)", Value: "browser"},
	}, defaultIdx)
	if err != nil {
		return err
	}
	cfg.Display.Driver = driver

	width, err := promptInt("Display width", cfg.Display.Width)
	if err != nil {
		return err
	}
	height, err := promptInt("Display height", cfg.Display.Height)
	if err != nil {
		return err
	}
	cfg.Display.Width, cfg.Display.Height = width, height

	if driver == "browser" {
		cfg.Display.Headless, err = promptConfirm("Run the browser headless?", cfg.Display.Headless)
		return err
	}
	display, err := promptString("X display", "", cfg.Display.Display)
	if err != nil {
		return err
	}
	cfg.Display.Display = display
	return nil
}

func onboardChatBot(cfg *config.Config) error {
	id, err := promptString("Bedrock agent ID", "", cfg.BedrockAgent.AgentID)
	if err != nil {
		return err
	}
	alias, err := promptString("Bedrock agent alias ID", "", cfg.BedrockAgent.AliasID)
	if err != nil {
		return err
	}
	cfg.BedrockAgent.AgentID, cfg.BedrockAgent.AliasID = id, alias

	token, err := promptPassword("Server token", "Bearer token for the HTTP endpoints (empty = no auth)")
	if err != nil {
		return err
	}
	if token != "" {
		cfg.Server.Token = token
	}
	return nil
}

func onboardActions(cfg *config.Config) error {
	base, err := promptString("Restaurant API base URL", "Booking actions are proxied here", cfg.ActionGroups.RestaurantAPIBaseURL)
	if err != nil {
		return err
	}
	cfg.ActionGroups.RestaurantAPIBaseURL = base

	key, err := promptPassword("SerpApi API key", "Used by /get_restaurants (empty = keep current)")
	if err != nil {
		return err
	}
	if key != "" {
		cfg.ActionGroups.SerpAPIKey = key
	}
	return nil
}

func promptInt(title string, current int) (int, error) {
	for {
		s, err := promptString(title, "", strconv.Itoa(current))
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(s)
		if err == nil && n > 0 {
			return n, nil
		}
		fmt.Printf("%q is not a positive number\n", s)
	}
}
