package sqlassets

import _ "embed"

//go:embed schema/profiles.sql
var ProfilesSQL string

//go:embed schema/content.sql
var ContentSQL string

//go:embed schema/leads.sql
var LeadsSQL string
