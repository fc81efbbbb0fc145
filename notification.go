package main

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// sendNotification sends a desktop notification using the freedesktop.org notification standard.
// It sends the notification asynchronously to avoid blocking the UI loop.
func sendNotification(summary, body string) {
	go func() {
		safeSummary := sanitizeString(summary)
		safeBody := sanitizeString(body)

		if safeSummary == "" {
			safeSummary = "AB"
		}

		// Construct the command for notify-send
		cmd := exec.Command(
			"notify-send",
			"-a", "AB",
			safeSummary, // Summary
			safeBody,    // Body
		)

		// Run the command
		err := cmd.Run()
		if err != nil {
			// Log the error, but don't crash the application
			fmt.Fprintf(os.Stderr, "Error sending notification: %v\n", err)
		}
	}()
}

// sanitizeString removes special characters that might cause issues in shell commands or D-Bus.
func sanitizeString(s string) string {
	// Replacer for problematic characters
	replacer := strings.NewReplacer(
		"&", "",
		";", "",
		"|", "",
		"*", "",
		"~", "",
		"<", "",
		">", "",
		"^", "",
		"(", "",
		")", "",
		"[", "",
		"]", "",
		"{", "",
		"}", "",
		"$", "",
		"\"", "",
	)
	return replacer.Replace(s)
}
