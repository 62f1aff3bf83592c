package intake

const (
	magnetPrefix      = "magnet:?"
	torrentSuffix     = ".torrent"
	selectionPrefix   = "folder_"
	stagedFilePattern = "intake-*.torrent"

	msgChooseDestination = "📁 Where should I save this torrent?"
	msgInvalidMagnet     = "❌ Invalid magnet link. Please send a valid magnet link."
	msgNotTorrentFile    = "❌ Please send a valid .torrent file."
	msgStagingFailed     = "❌ Oops! I couldn't process your torrent file. Please try again!"
	msgStoreFailed       = "❌ Oops! I couldn't remember your torrent. Please try again!"
	msgNoPending         = "❌ No pending torrent found. Please send a new torrent."
	msgInvalidSelection  = "❌ Invalid selection."
	msgConnectionFailed  = "❌ Failed to connect to %s. Please try again later."
	msgDispatchFailed    = "❌ Failed to add torrent. Please check the logs."
	msgDispatched        = "✅ Torrent added successfully!\n📁 Category: %s\n💾 Save path: %s"
	msgCancelled         = "🗑️ Pending torrent discarded."
	msgNothingToCancel   = "🤷 There is no pending torrent to cancel."
)
