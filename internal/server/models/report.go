package models

import "time"

// SubmissionMetadata is what we know about the sender of an anonymous message,
// captured when the message arrives.
type SubmissionMetadata struct {
	MessageID int64
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// Report is an abuse report filed by a message's recipient. MessageContent is
// a snapshot taken at report time.
type Report struct {
	ID             int64
	MessageID      int64
	ReporterID     int64
	ReportedAt     time.Time
	MessageContent string
	SenderIP       *string
	UserAgent      *string
}

// NewReport merges a message with its optional submission metadata.
func NewReport(msg *Message, reporterID int64, meta *SubmissionMetadata, now time.Time) *Report {
	r := &Report{
		MessageID:      msg.ID,
		ReporterID:     reporterID,
		ReportedAt:     now.UTC(),
		MessageContent: msg.Content,
	}
	if meta != nil {
		ip, ua := meta.IPAddress, meta.UserAgent
		r.SenderIP = &ip
		r.UserAgent = &ua
	}
	return r
}
