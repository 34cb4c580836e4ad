// Global bumblebloom config.
package config

// Name of the service.
const DBName = "bumblebloom"

// Prompt printed by REPL.
const Prompt = DBName + "> "

// Default number of bits for filters created without an explicit size.
const DefaultBitsNum = 1 << 16

// Default number of positions per item.
const DefaultTimes = 5

// Extension of persisted filter files.
const FilterExt = ".bloom"

// Name of log file.
const LogFileName = "./bloom.log"

// Suffix of the snapshot folder written at each checkpoint.
const RecoverySuffix = "-recovery"

// Return prompt if requested, else "".
func GetPrompt(flag bool) string {
	if flag {
		return Prompt
	}
	return ""
}
