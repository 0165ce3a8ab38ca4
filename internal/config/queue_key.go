package config

// Redis keys shared between handlers, workers, and the lifecycle engine.
// Centralized here so producers and consumers never drift apart.

const (
	// AIGradingQueue is the Redis list the AI grading worker consumes.
	// Payloads are JSON-encoded worker.AIGradeTask values.
	AIGradingQueue = "imark:queue:ai_grading"
)

// SegmentationLockKey is the per-exam mutex guarding batch extraction.
func SegmentationLockKey(examID string) string {
	return "imark:lock:segmentation:" + examID
}

// GradingProgressChannel is the pub/sub channel for an exam's grading
// progress events, fanned out to connected teacher websockets.
func GradingProgressChannel(examID string) string {
	return "imark:progress:" + examID
}
