package src

import (
	"fmt"
	"log"
	"runtime"
	"sort"
	"strings"
	"time"
)

func showInfo(str string) {
	if System.Flag.Info {
		return
	}

	var max = 23
	var msg = strings.SplitN(str, ":", 2)
	var length = len(msg[0])
	var space string

	if len(msg) == 2 {
		for i := length; i < max; i++ {
			space = space + " "
		}

		msg[0] = msg[0] + ":" + space

		var logMsg = fmt.Sprintf("[%s] %s%s", System.Name, msg[0], msg[1])

		printLogOnScreen(logMsg, "info")

		logMsg = strings.Replace(logMsg, " ", "&nbsp;", -1)
		WebScreenLog.Mu.Lock()
		WebScreenLog.Log = append(WebScreenLog.Log, time.Now().Format("2006-01-02 15:04:05")+" "+logMsg)
		logCleanUp()
		WebScreenLog.Mu.Unlock()
	}
}

func showDebug(str string, level int) {
	if System.Flag.Debug < level {
		return
	}

	var max = 23
	var msg = strings.SplitN(str, ":", 2)
	var length = len(msg[0])
	var space string

	if len(msg) == 2 {
		for i := length; i < max; i++ {
			space = space + " "
		}
		msg[0] = msg[0] + ":" + space

		var logMsg = fmt.Sprintf("[DEBUG] %s%s", msg[0], msg[1])

		printLogOnScreen(logMsg, "debug")

		logMsg = strings.Replace(logMsg, " ", "&nbsp;", -1)
		WebScreenLog.Mu.Lock()
		WebScreenLog.Log = append(WebScreenLog.Log, time.Now().Format("2006-01-02 15:04:05")+" "+logMsg)
		logCleanUp()
		WebScreenLog.Mu.Unlock()
	}
}

func showHighlight(str string) {
	var max = 23
	var msg = strings.SplitN(str, ":", 2)
	var length = len(msg[0])
	var space string

	var notification Notification
	notification.Type = "info"

	if len(msg) == 2 {
		for i := length; i < max; i++ {
			space = space + " "
		}

		msg[0] = msg[0] + ":" + space

		var logMsg = fmt.Sprintf("[%s] %s%s", System.Name, msg[0], msg[1])

		printLogOnScreen(logMsg, "highlight")

		notification.Message = msg[1]

		if err := addNotification(notification); err != nil {
			ShowError(err, 0)
		}
	}
}

func showWarning(errCode int) {
	var errMsg = getErrMsg(errCode)
	var logMsg = fmt.Sprintf("[%s] [WARNING] %s", System.Name, errMsg)

	printLogOnScreen(logMsg, "warning")

	WebScreenLog.Mu.Lock()
	WebScreenLog.Log = append(WebScreenLog.Log, time.Now().Format("2006-01-02 15:04:05")+" "+logMsg)
	WebScreenLog.Warnings++
	WebScreenLog.Mu.Unlock()
}

// ShowError : Shows the Error Messages in the Console
func ShowError(err error, errCode int) {
	var errMsg = getErrMsg(errCode)
	var logMsg = fmt.Sprintf("[%s] [ERROR] %s (%s) - EC: %d", System.Name, err, errMsg, errCode)

	printLogOnScreen(logMsg, "error")

	WebScreenLog.Mu.Lock()
	WebScreenLog.Log = append(WebScreenLog.Log, time.Now().Format("2006-01-02 15:04:05")+" "+logMsg)
	WebScreenLog.Errors++
	WebScreenLog.Mu.Unlock()
}

func printLogOnScreen(logMsg string, logType string) {
	var color string

	switch logType {
	case "info":
		color = "\033[0m"
	case "debug":
		color = "\033[35m"
	case "highlight":
		color = "\033[32m"
	case "warning":
		color = "\033[33m"
	case "error":
		color = "\033[31m"
	}

	switch runtime.GOOS {
	case "windows":
		log.Println(logMsg)
	default:
		fmt.Print(color)
		log.Println(logMsg)
		fmt.Print("\033[0m")
	}
}

// logCleanUp : Trims the RAM log to the configured length. Caller holds WebScreenLog.Mu.
func logCleanUp() {
	var logEntriesRAM = Settings.LogEntriesRAM
	var logs = WebScreenLog.Log

	WebScreenLog.Warnings = 0
	WebScreenLog.Errors = 0

	if len(logs) > logEntriesRAM {
		logs = logs[len(logs)-logEntriesRAM:]
	}

	for _, entry := range logs {
		if strings.Contains(entry, "WARNING") {
			WebScreenLog.Warnings++
		}

		if strings.Contains(entry, "ERROR") {
			WebScreenLog.Errors++
		}
	}
	WebScreenLog.Log = logs
}

// addNotification : Stores a Notification for the Web Interface, keyed by its headline
func addNotification(notification Notification) (err error) {
	notification.Time = time.Now().Format("2006-01-02 15:04:05")
	notification.New = true

	if System.Notification == nil {
		System.Notification = make(map[string]Notification)
	}

	if len(notification.Headline) == 0 {
		notification.Headline = notification.Type
	}

	System.Notification[notification.Headline] = notification

	// Old notifications are removed
	var keys = make([]string, 0, len(System.Notification))
	for key := range System.Notification {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for len(keys) > 10 {
		delete(System.Notification, keys[0])
		keys = keys[1:]
	}
	return
}
