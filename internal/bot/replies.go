package bot

const (
	UseMenuReply       = "Please use the menu buttons."
	NoDownloadsReply   = "No downloads recorded yet."
	StatsDisabledReply = "Download statistics are disabled."
	StatsHeader        = "Top downloads:"
	SendFailedReply    = "Could not send the file. Try again later."
)

const topDownloadsLimit = 10
