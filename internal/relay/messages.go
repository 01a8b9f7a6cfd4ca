package relay

import "fmt"

const (
	messageStartTitleFormat = ":microphone2: **Transcription started** for session `%s`."
	messageStartHint        = "-# Press Ctrl+C in the buddy terminal to stop."
	messageStopTitleFormat  = ":pause_button: **Transcription stopped** for session `%s`."
	messageStopEmpty        = "Nothing was heard during this session."
	messageAttachmentTitle  = ":page_facing_up: **Transcript**"
	messagePoweredByLine    = "-# *Powered by meeting buddy*"
)

func startMessage(session string) string {
	return fmt.Sprintf(messageStartTitleFormat, session) + "\n" + messageStartHint + "\n" + messagePoweredByLine
}

func stopMessage(session string, lines int) string {
	title := fmt.Sprintf(messageStopTitleFormat, session)
	if lines == 0 {
		return title + "\n" + messageStopEmpty
	}
	return title + "\n" + messageAttachmentTitle
}
