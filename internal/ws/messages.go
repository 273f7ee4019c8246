package ws

import "fmt"

// System lines start with a marker no chat line can start with: chat lines
// start with "<identity>: " and the gate refuses identities that open with
// either marker.
const (
	joinMarker  = "✅"
	leaveMarker = "❌"
)

func formatEntry(identity string, text []byte) string {
	return identity + ": " + string(text)
}

func joinAnnouncement(identity, roomName string) string {
	return fmt.Sprintf("%s %s joined [%s]", joinMarker, identity, roomName)
}

func leaveAnnouncement(identity, roomName string) string {
	return fmt.Sprintf("%s %s left [%s]", leaveMarker, identity, roomName)
}
