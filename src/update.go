package src

import (
	"errors"
)

// Migrate the settings file of an older release to the current database
// version. A settings file written by a newer release is refused, a silent
// downgrade would lose whatever the newer release stored in it.
func conditionalUpdateChanges() (err error) {
	settingsMap, err := loadJSONFileToMap(System.File.Settings)
	if err != nil || len(settingsMap) == 0 {
		return
	}

	settingsVersion, ok := settingsMap["version"].(string)
	if !ok {
		// A settings file without a version entry has never been written
		// by this program
		err = errors.New(getErrMsg(1013))
		return
	}

	if settingsVersion > System.DBVersion {
		showInfo("Settings DB Version:" + settingsVersion)
		showInfo("System DB Version:" + System.DBVersion)
		err = errors.New(getErrMsg(1031))
		return
	}

	if settingsVersion < System.Compatibility {
		err = errors.New(getErrMsg(1013))
		return
	}

	switch settingsVersion {
	case "1.0.0":
		// If there are changes to the database in a later release, the
		// migration continues here
		break
	}
	return
}
