package events

// EventLoaded is posted once the history and members of a channel were
// fetched.
type EventLoaded struct {
	ChannelID string
	Err       error // nil on success
}

// EventNowPlaying carries the result of a /np lookup.
type EventNowPlaying struct {
	Buffer string
	Song   string // empty if nothing is playing
	Err    error
}
