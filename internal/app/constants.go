package app

const (
	Name              = "tunelink"
	DisplayName       = "TuneLink"
	ConfigFilename    = "config.json"
	DBFilename        = "journal.db"
	LogFilename       = "app.log"
	RecentJournalLoad = 500
)
