package root

import (
	"github.com/zenGate-Global/booking-funnel/apps/cli/cmd/auth"
	"github.com/zenGate-Global/booking-funnel/apps/cli/cmd/bootstrap"
	"github.com/zenGate-Global/booking-funnel/apps/cli/cmd/profiles"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(bootstrap.Command())
	Root().AddCommand(profiles.Command())
}
