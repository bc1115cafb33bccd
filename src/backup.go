package src

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// backupSourceFiles : System files that go into a backup archive
func backupSourceFiles() (sourceFiles []string) {

	for _, file := range SystemFiles {
		sourceFiles = append(sourceFiles, System.Folder.Config+file)
	}

	return
}

// backupTargetFolder : Backup folder from the settings, falls back to the default
func backupTargetFolder() (backupPath string, err error) {

	backupPath = Settings.BackupPath
	if len(backupPath) == 0 {
		backupPath = System.Folder.Backup
	}

	if err = checkFolder(backupPath); err != nil {
		return
	}

	err = checkFilePermission(backupPath)
	return
}

// tvgateBackup : Create a backup of the system files
func tvgateBackup() (archive string, err error) {

	backupPath, err := backupTargetFolder()
	if err != nil {
		return
	}

	archive = backupPath + fmt.Sprintf("%s_backup_%s.zip", System.AppName, time.Now().Format("20060102_1504"))

	if err = zipFiles(backupSourceFiles(), archive); err != nil {
		ShowError(err, 1011)
		return
	}

	showInfo("Backup:" + archive)
	return
}

// tvgateAutoBackup : Scheduled backup, rotates the oldest archives
func tvgateAutoBackup() (err error) {

	backupPath, err := backupTargetFolder()
	if err != nil {
		return
	}

	var archive = backupPath + fmt.Sprintf("%s_auto_backup_%s.zip", System.AppName, time.Now().Format("20060102_1504"))

	if err = zipFiles(backupSourceFiles(), archive); err != nil {
		ShowError(err, 1011)
		return
	}

	showInfo("Auto Backup:" + archive)

	entries, err := os.ReadDir(backupPath)
	if err != nil {
		return
	}

	var oldBackups []string
	var prefix = System.AppName + "_auto_backup_"

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), prefix) && strings.HasSuffix(entry.Name(), ".zip") {
			oldBackups = append(oldBackups, entry.Name())
		}
	}

	// The timestamp in the file name keeps the list in creation order
	sort.Strings(oldBackups)

	if Settings.BackupKeep > 0 {

		for len(oldBackups) > Settings.BackupKeep {

			if err = os.Remove(backupPath + oldBackups[0]); err != nil {
				return
			}

			showDebug("Delete Old Backup:"+backupPath+oldBackups[0], 1)
			oldBackups = oldBackups[1:]
		}
	}

	return
}

// tvgateRestore : Restore the system files from a backup archive
func tvgateRestore(archive string) (err error) {

	if _, err = os.Stat(archive); err != nil {
		return
	}

	showInfo("Restore:" + archive)

	if err = extractZIP(archive, System.Folder.Config); err != nil {
		ShowError(err, 1012)
		return
	}

	return
}

// TvgateRestoreFromCLI : Restore a backup from the command line
func TvgateRestoreFromCLI(archive string) (err error) {

	if err = tvgateRestore(archive); err != nil {
		return
	}

	showInfo("Restore:Settings were restored, restart " + System.Name)
	return
}
