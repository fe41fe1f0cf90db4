package models

import "strings"

// CommandType enumerates supported worker command categories.
type CommandType string

const (
	CommandStock   CommandType = "stock"
	CommandSample  CommandType = "sample"
	CommandHarvest CommandType = "harvest"
	CommandFCR     CommandType = "fcr"
	CommandCalc    CommandType = "calc"
	CommandUnknown CommandType = "unknown"
)

var commandAliases = map[string]CommandType{
	"stock":    CommandStock,
	"stocking": CommandStock,
	"sample":   CommandSample,
	"sampling": CommandSample,
	"harvest":  CommandHarvest,
	"fcr":      CommandFCR,
	"calc":     CommandCalc,
	"preview":  CommandCalc,
}

// Command represents a parsed worker instruction extracted from message text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command from free-form text such as
// "/sample 3 10 2.5". The leading slash is optional.
func ParseCommand(message string) Command {
	cmd := Command{Type: CommandUnknown, Raw: message}

	tokens := strings.Fields(strings.ToLower(strings.TrimSpace(message)))
	if len(tokens) == 0 {
		return cmd
	}

	if t, ok := commandAliases[strings.TrimPrefix(tokens[0], "/")]; ok {
		cmd.Type = t
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
