package models

import "time"

// Blob is a finalized recording. The bytes never travel through the JSON API.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"-"`
}

// Size returns the payload length in bytes, zero for a nil blob.
func (b *Blob) Size() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// SizeKB is the rounded size the candidate sees under the player.
func (b *Blob) SizeKB() int {
	return (b.Size() + 512) / 1024
}

// Response is the answer slot for one question. Text and video are
// independent; either, both or neither may be set.
type Response struct {
	Text  string `json:"text"`
	Video *Blob  `json:"-"`
}

// HasVideo reports whether a recording is attached.
func (r Response) HasVideo() bool {
	return r.Video != nil
}

// Submission is the persisted result of a finished candidate session.
type Submission struct {
	ID            string    `json:"id"`
	InterviewID   string    `json:"interviewId"`
	CandidateName string    `json:"candidateName"`
	Answers       []Answer  `json:"answers"`
	StartedAt     time.Time `json:"startedAt"`
	CompletedAt   time.Time `json:"completedAt"`
}

// Answer is one question's stored response inside a Submission.
type Answer struct {
	QuestionID   string `json:"questionId"`
	QuestionText string `json:"questionText"`
	Text         string `json:"text"`
	VideoPath    string `json:"videoPath,omitempty"`
	VideoMIME    string `json:"videoMime,omitempty"`
	VideoSize    int    `json:"videoSize,omitempty"`
}

// Candidate records the name a candidate gave on the gateway page.
type Candidate struct {
	ID          string    `json:"id"`
	InterviewID string    `json:"interviewId"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
}
