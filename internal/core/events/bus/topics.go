package bus

// Event types exchanged between sessions and the host.
const (
	TopicPlayerJoined         = "session_player_joined"
	TopicPlayerLeft           = "session_player_left"
	TopicEntityRegistered     = "session_entity_registered"
	TopicEntityUnregistered   = "session_entity_unregistered"
	TopicAuthorityTransferred = "session_authority_transferred"
	TopicControllerChanged    = "controller_changed"
)
