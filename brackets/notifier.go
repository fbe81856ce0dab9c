package brackets

import "context"

// HubNotifier adapts the spectator hub to the engine's update seam.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) PostUpdate(_ context.Context, channelID, message string, artifactURLs ...string) {
	n.hub.Broadcast(Event{
		Type:      "UPDATE",
		ChannelID: channelID,
		Payload: map[string]any{
			"message":   message,
			"artifacts": artifactURLs,
		},
	})
}
