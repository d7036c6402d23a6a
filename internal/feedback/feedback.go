/*
Package feedback is the boundary to speech synthesis and audio cues.

The engine treats both operations as fire-and-forget: a handler can ask
for a spoken confirmation or a sound cue, and a failure in either must
never abort or delay dispatch.
*/
package feedback

import "log"

// Sound cues a handler can request.
const (
	CueSuccess   = "success"
	CueError     = "error"
	CueListening = "listening"
)

// Service is the external feedback collaborator.
type Service interface {
	// Speak synthesizes text. Blocking is the implementation's business;
	// engine code only calls it through Say.
	Speak(text string) error

	// PlaySound plays a short cue.
	PlaySound(cue string)
}

// Say emits speech without awaiting it. Errors are logged and dropped so
// speech synthesis can never serialize dispatch behind it.
func Say(s Service, text string) {
	if s == nil || text == "" {
		return
	}
	go func() {
		if err := s.Speak(text); err != nil {
			log.Printf("Warning: speech feedback failed: %v", err)
		}
	}()
}

// Play emits a sound cue, tolerating a nil service.
func Play(s Service, cue string) {
	if s == nil {
		return
	}
	s.PlaySound(cue)
}

// LogService logs feedback instead of producing audio. Used by the CLI
// and anywhere no audio host is attached.
type LogService struct{}

func (LogService) Speak(text string) error {
	log.Printf("speak: %s", text)
	return nil
}

func (LogService) PlaySound(cue string) {
	log.Printf("sound: %s", cue)
}

// Discard swallows all feedback.
type Discard struct{}

func (Discard) Speak(string) error { return nil }
func (Discard) PlaySound(string) {}
