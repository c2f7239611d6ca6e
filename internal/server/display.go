package server

import "fmt"

// displayServerInfo prints the listening configuration to the console.
func (s *Server) displayServerInfo() {
	scheme := "http"
	if s.tlsConfig != nil {
		scheme = "https"
	}
	fmt.Printf("Starting server on %s://%s (TLS mode: %s)\n", scheme, s.Addr(), tlsModeLabel(s.cfg.Server.TLS.Mode))

	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayLimits()
}

func tlsModeLabel(mode string) string {
	if mode == "" {
		return "disabled"
	}
	return mode
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                                  - Health check")
	fmt.Println("  GET    /stats                                   - Server statistics")
	fmt.Println("  GET    " + APIPrefix + "/templates                       - Resume templates")
	fmt.Println("  POST   " + APIPrefix + "/sessions                        - Create a session")
	fmt.Println("  GET    " + APIPrefix + "/sessions/{id}                   - Session snapshot")
	fmt.Println("  POST   " + APIPrefix + "/sessions/{id}/resume            - Submit resume for analysis")
	fmt.Println("  POST   " + APIPrefix + "/sessions/{id}/chat/...          - Guided improvement chat")
	fmt.Println("  POST   " + APIPrefix + "/sessions/{id}/interview/...     - Build a resume by interview")
	fmt.Println("  POST   " + APIPrefix + "/sessions/{id}/document          - Render the improved resume")
	fmt.Println("  POST   " + APIPrefix + "/stateless/{operation}           - Run an operation on a client snapshot")
	fmt.Println("  POST   " + APIPrefix + "/transcribe                      - Transcribe a voice message")
}

func (s *Server) displayAuthInfo() {
	if len(s.apiKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.apiKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests under " + APIPrefix)
		return
	}
	fmt.Println("API authentication: DISABLED (no API keys configured)")
}

func (s *Server) displayLimits() {
	fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.maxRequestSize, float64(s.maxRequestSize)/(1024*1024))

	rl := s.cfg.Server.RateLimit
	if !rl.Enabled {
		fmt.Println("Rate limiting: DISABLED")
		return
	}
	fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n", rl.RequestsPerMin, rl.BurstCapacity)
	if rl.ByAPIKey {
		fmt.Println("  - Per API key rate limiting enabled")
	}
	if rl.ByIP {
		fmt.Println("  - Per IP address rate limiting enabled")
	}
}
