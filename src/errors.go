package src

// getErrMsg : Error Message for the Error Code
func getErrMsg(errCode int) (errMsg string) {
	switch errCode {
	case 0:
		return

	// System errors (1000 - 1999)
	case 1001:
		errMsg = "Web server could not be started."
	case 1002:
		errMsg = "No local IP address found."
	case 1003:
		errMsg = "Invalid xml"
	case 1004:
		errMsg = "File not found"
	case 1005:
		errMsg = "Invalid file compression"
	case 1006:
		errMsg = "Settings could not be saved."
	case 1010:
		errMsg = "Invalid update interval, the Format must be hhmm."
	case 1011:
		errMsg = "Could not create the backup."
	case 1012:
		errMsg = "Could not restore the backup."
	case 1013:
		errMsg = "The settings file is not compatible with this version."
	case 1014:
		errMsg = "The file could not be loaded from the remote server, an older local copy is used instead."
	case 1015:
		errMsg = "Invalid path for the temporary files, the default path is used."
	case 1016:
		errMsg = "Web server could not be stopped."
	case 1017:
		errMsg = "TLS web server could not be started, falling back to HTTP."
	case 1020:
		errMsg = "Data is already being processed."
	case 1031:
		errMsg = "The settings file was created by a newer version."
	case 1070:
		errMsg = "Invalid M3U file, no extended M3U file."
	case 1072:
		errMsg = "Is a directory"

	// Provider errors (2000 - 2999)
	case 2001:
		errMsg = "Playlist source is not configured."
	case 2002:
		errMsg = "Guide source is not configured."
	case 2003:
		errMsg = "Invalid URL, only HTTP and HTTPS are supported."
	case 2010:
		errMsg = "Playlist could not be downloaded from the remote server."
	case 2011:
		errMsg = "Guide could not be downloaded from the remote server."
	case 2020:
		errMsg = "No channels found in the playlist."
	case 2021:
		errMsg = "Defective guide entries were skipped."
	case 2023:
		errMsg = "API request from a remote address was denied."

	// Gateway errors (3000 - 3999)
	case 3001:
		errMsg = "Missing URL parameter."
	case 3002:
		errMsg = "Invalid URL parameter."
	case 3003:
		errMsg = "Upstream host is not part of the current playlist."
	case 3004:
		errMsg = "Upstream server could not be reached."
	case 3005:
		errMsg = "Upstream server took too long to respond."

	// Playback errors (4000 - 4999)
	case 4000:
		errMsg = "Channel not found."
	case 4001:
		errMsg = "Stream format is not supported by this client."
	case 4002:
		errMsg = "Playback session could not be started."

	// API errors (5000 - 5999)
	case 5000:
		errMsg = "Unknown command"

	// TLS errors (7000 - 7999)
	case 7000:
		errMsg = "Certificate files could not be created."

	default:
		errMsg = "Unknown error / warning"
	}
	return
}
