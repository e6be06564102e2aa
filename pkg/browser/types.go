package browser

// StatusInfo describes the current browser state.
type StatusInfo struct {
	Running bool   `json:"running"`
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}
