package chat

import "strings"

// CreatorBio answers questions about the assistant's creator.
const CreatorBio = "**Aniket Kumar** is a passionate developer and AI enthusiast. " +
	"He believes in the power of **optimism** and strives to build tools that " +
	"make the world a better place. Aniket is known for his problem-solving skills " +
	"and his ability to simplify complex concepts. He is also an advocate for " +
	"open-source software and continuous learning."

// LocationNotice answers location questions without calling the model.
const LocationNotice = "I can provide location-based responses. Please enable location access in your browser settings."

// Intercept returns a fixed reply for prompts that never reach the model.
func Intercept(prompt string) (string, bool) {
	lower := strings.ToLower(prompt)
	if strings.Contains(lower, "aniket kumar") {
		return CreatorBio, true
	}
	if strings.Contains(lower, "location") {
		return LocationNotice, true
	}
	return "", false
}
