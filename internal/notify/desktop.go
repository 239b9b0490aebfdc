package notify

import "github.com/gen2brain/beeep"

// Desktop shows OS toast notifications.
type Desktop struct{}

func (Desktop) Name() string { return "desktop" }

func (Desktop) Send(title, message string) error {
	return beeep.Notify(title, message, "")
}
