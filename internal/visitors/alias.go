package visitors

import "hash/fnv"

var aliasAdjectives = []string{
	"Curious", "Happy", "Clever", "Wise", "Playful", "Brave", "Swift", "Gentle", "Bold", "Lively",
	"Bright", "Cheerful", "Creative", "Elegant", "Friendly", "Calm", "Quiet", "Daring", "Nimble", "Merry",
}

var aliasAnimals = []string{
	"Panda", "Fox", "Owl", "Otter", "Lion", "Eagle", "Deer", "Raven", "Beaver", "Koala",
	"Dolphin", "Whale", "Seahorse", "Turtle", "Octopus", "Falcon", "Heron", "Lark", "Finch", "Sparrow",
}

// Alias turns a visitor hash into a stable, human readable pseudonym such as
// "Curious Otter", used where exports show who clicked without exposing hashes.
func Alias(visitorHash string) string {
	if visitorHash == "" {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(visitorHash))
	index := int(h.Sum32())

	adj := aliasAdjectives[index%len(aliasAdjectives)]
	animal := aliasAnimals[(index/len(aliasAdjectives))%len(aliasAnimals)]
	return adj + " " + animal
}
