package speech

import "math/rand"

// Voice pools grouped by how the TTS voices read.
var (
	MaleVoices    = []string{"echo", "fable", "onyx"}
	FemaleVoices  = []string{"nova", "shimmer"}
	NeutralVoices = []string{"alloy"}
)

// VoiceDescriptions maps every supported voice to its catalog blurb, used
// for the sample previews.
var VoiceDescriptions = map[string]string{
	"alloy":   "Alloy voice - neutral and balanced",
	"echo":    "Echo voice - male voice",
	"fable":   "Fable voice - British male accent",
	"onyx":    "Onyx voice - deep male voice",
	"nova":    "Nova voice - female voice",
	"shimmer": "Shimmer voice - female voice",
}

// AllVoices returns every supported voice id.
func AllVoices() []string {
	all := make([]string, 0, len(MaleVoices)+len(FemaleVoices)+len(NeutralVoices))
	all = append(all, MaleVoices...)
	all = append(all, FemaleVoices...)
	all = append(all, NeutralVoices...)
	return all
}

// IsKnownVoice reports whether v is a supported voice id.
func IsKnownVoice(v string) bool {
	_, ok := VoiceDescriptions[v]
	return ok
}

// VoiceForGender picks a random voice from the pool matching gender
// ("male"/"female"); any other value draws from all voices.
func VoiceForGender(gender string) string {
	switch gender {
	case "male":
		return MaleVoices[rand.Intn(len(MaleVoices))]
	case "female":
		return FemaleVoices[rand.Intn(len(FemaleVoices))]
	default:
		all := AllVoices()
		return all[rand.Intn(len(all))]
	}
}
