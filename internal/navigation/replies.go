package navigation

const (
	WelcomeReply         = "Welcome! Tap below to see available exam years:"
	SelectYearReply      = "Select a year to view available exam files:"
	FilesForYearReply    = "Available files for %s:"
	NoFilesReply         = "No files found for %s."
	SelectYearFirstReply = "Please select a year first."
	FileNotFoundReply    = "File not found. Try again."
)

// Default button labels.
const (
	DefaultOpenCatalogLabel = "📘 WIUT Math Entrance Exam Samples"
	DefaultBackToMainLabel  = "⬅️ Main Menu"
	DefaultBackToYearsLabel = "⬅️ Back to Years"
)
