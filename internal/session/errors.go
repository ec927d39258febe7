package session

import "errors"

var (
	// ErrNoQuestions blocks a session from starting.
	ErrNoQuestions = errors.New("interview has no valid questions")
	// ErrNoActiveQuestion is returned when no question is being answered.
	ErrNoActiveQuestion = errors.New("no active question")
	// ErrNotActive rejects responses recorded outside the Active state.
	ErrNotActive = errors.New("session is not accepting responses")
	// ErrPermissionDenied means the candidate refused camera or microphone access.
	ErrPermissionDenied = errors.New("camera and microphone access denied")
	// ErrEncodingUnsupported means no usable codec is available for a recording.
	ErrEncodingUnsupported = errors.New("recording encoding unsupported")
	// ErrRecordingDisabled is returned after encoding failed for the current question.
	ErrRecordingDisabled = errors.New("recording disabled for this question")
	// ErrInvalidState rejects a capture command issued from the wrong state.
	ErrInvalidState = errors.New("invalid capture state for this command")
	// ErrClosed is returned by a controller after teardown.
	ErrClosed = errors.New("session closed")

	// errStaleTransition marks a timer or recorder callback aimed at a
	// question that is no longer current. It never reaches a user.
	errStaleTransition = errors.New("stale transition")
)

// ErrNoCapture is returned for recording commands on a question without a camera.
var ErrNoCapture = errors.New("current question has no capture device")
