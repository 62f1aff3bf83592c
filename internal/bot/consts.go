package bot

const (
	commandStart  = "start"
	commandHelp   = "help"
	commandStatus = "status"
	commandCancel = "cancel"

	destinationsPerRow = 2
	updateTimeout      = 60

	msgNotAuthorized  = "Sorry, you are not authorized to use this bot."
	msgUnknownCommand = "I don't know that command. Try /help."

	msgWelcome = "🎬 Welcome to Torrent Bot!\n\n" +
		"I can help you download torrents using %s.\n\n" +
		"📝 What I can do:\n" +
		"• Add magnet links\n" +
		"• Add .torrent files\n" +
		"• Organize downloads into %s\n\n" +
		"🚀 Just send me a magnet link or a .torrent file to get started!"

	msgHelp = "ℹ️ How to use this bot:\n\n" +
		"1️⃣ Send a magnet link or upload a .torrent file\n" +
		"2️⃣ Choose where it should be saved\n" +
		"3️⃣ I'll add it to %s for you!\n\n" +
		"Commands:\n" +
		"/start - Start the bot\n" +
		"/help - Show this help message\n" +
		"/status - Check %s connection status\n" +
		"/cancel - Forget the torrent waiting for a destination"
)
