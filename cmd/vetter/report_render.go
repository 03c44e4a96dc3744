package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"vetter/internal/inspect"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func boolKind(ok bool) statusKind {
	if ok {
		return statusOK
	}
	return statusWarn
}

func printReport(cmd *cobra.Command, subjectID int64, payload []byte) error {
	report, err := inspect.DecodeReport(payload)
	if err != nil {
		return fmt.Errorf("decode deep result: %w", err)
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	title := report.Title
	if title == "" {
		title = fmt.Sprintf("subject %d", subjectID)
	}
	fmt.Fprintf(out, "Deep analysis for %s\n", title)

	fmt.Fprintln(out, renderStatusLine("Join", boolKind(report.JoinSuccess), "", colorize))
	if report.Username != "" {
		fmt.Fprintln(out, renderStatusLine("Username", statusInfo, "@"+report.Username, colorize))
	}
	if report.GroupType != "" {
		fmt.Fprintln(out, renderStatusLine("Type", statusInfo, report.GroupType, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Participants", statusInfo, fmt.Sprintf("%d", report.ParticipantCount), colorize))
	fmt.Fprintln(out, renderStatusLine("Messages", statusInfo, fmt.Sprintf("%d", report.MessageCount), colorize))

	geoKind := statusOK
	geoMsg := "no"
	if report.GeoGroup {
		geoKind = statusWarn
		geoMsg = "yes"
		if len(report.GeoReasons) > 0 {
			geoMsg += " (" + strings.Join(report.GeoReasons, "; ") + ")"
		}
	}
	fmt.Fprintln(out, renderStatusLine("Geo group", geoKind, geoMsg, colorize))

	if report.ImportedStatus != "" {
		importedKind := statusInfo
		if len(report.ImportedSigns) > 0 {
			importedKind = statusWarn
		}
		msg := report.ImportedStatus
		if len(report.ImportedSigns) > 0 {
			msg += " (" + strings.Join(report.ImportedSigns, "; ") + ")"
		}
		fmt.Fprintln(out, renderStatusLine("Imported history", importedKind, msg, colorize))
	}
	if report.CreationDate != "" {
		msg := report.CreationDate
		if report.CreationMethod != "" {
			msg += " via " + report.CreationMethod
		}
		fmt.Fprintln(out, renderStatusLine("Created", statusInfo, msg, colorize))
	}
	if report.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, report.Error, colorize))
	}
	return nil
}
