// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package sse

import (
	"fmt"
	"strings"
)

// ContentType is the media type of an event stream.
const ContentType = "text/event-stream"

// FormatEvent formats data as an SSE event with an optional event name.
// Each line of data gets its own "data:" prefix.
func FormatEvent(eventName, data string) string {
	var sb strings.Builder

	if eventName != "" {
		fmt.Fprintf(&sb, "event: %s\n", eventName)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&sb, "data: %s\n", line)
	}

	sb.WriteString("\n")
	return sb.String()
}

// Comments (lines starting with ":") are ignored by SSE clients.
const (
	// Connected is written once the subscription is registered.
	Connected = ": connected\n\n"
	// Heartbeat keeps idle connections open through proxies.
	Heartbeat = ": heartbeat\n\n"
)
