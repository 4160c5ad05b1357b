package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonModelGenerate  ReasonCode = "model_generate"
	ReasonModelRateLimit ReasonCode = "model_rate_limit"
	ReasonModelResponse  ReasonCode = "model_malformed_response"

	ReasonSynthesize ReasonCode = "tts_synthesize"
	ReasonTranscribe ReasonCode = "stt_transcribe"

	ReasonFragmentParse ReasonCode = "fragment_parse"

	ReasonTransportSend             ReasonCode = "transport_send"
	ReasonTransportInvalidSignature ReasonCode = "webhook_invalid_signature"
)
