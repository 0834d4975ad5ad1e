package location

import "sort"

// DefaultK is the number of nearest fingerprints that vote on a location.
const DefaultK = 3

// LocationDistance is the distance from a live scan to one stored fingerprint.
type LocationDistance struct {
	Location string  `json:"location"`
	Distance float64 `json:"distance"`
}

// Vote is the number of nearest fingerprints that named a location.
type Vote struct {
	Location string `json:"location"`
	Votes    int    `json:"votes"`
}

// Distances computes the distance from live to every fingerprint, sorted ascending.
// Equal distances keep the order of fps.
func Distances(live Fingerprint, fps []Fingerprint) []LocationDistance {
	distances := make([]LocationDistance, len(fps))
	for i, fp := range fps {
		distances[i] = LocationDistance{Location: fp.Location, Distance: Distance(live, fp)}
	}
	sort.SliceStable(distances, func(i, j int) bool {
		return distances[i].Distance < distances[j].Distance
	})
	return distances
}

// Tally counts the locations among the first k sorted distances.
// Votes are ordered by first appearance, so earlier entries are closer.
func Tally(distances []LocationDistance, k int) []Vote {
	k = min(k, len(distances))

	var votes []Vote
	index := make(map[string]int)
	for _, d := range distances[:max(k, 0)] {
		i, ok := index[d.Location]
		if !ok {
			i = len(votes)
			index[d.Location] = i
			votes = append(votes, Vote{Location: d.Location})
		}
		votes[i].Votes++
	}
	return votes
}

// Matcher picks the location with the most votes among the K nearest fingerprints.
type Matcher struct {
	K int
}

func (m Matcher) k() int {
	if m.K <= 0 {
		return DefaultK
	}
	return m.K
}

// BestMatch returns the winning location and the sorted distance list.
// ok is false when there are no fingerprints.
// On equal votes the location whose nearest fingerprint is closest wins.
func (m Matcher) BestMatch(live Fingerprint, fps []Fingerprint) (string, []LocationDistance, bool) {
	distances := Distances(live, fps)

	var best Vote
	for _, v := range Tally(distances, m.k()) {
		if v.Votes > best.Votes {
			best = v
		}
	}
	if best.Votes == 0 {
		return "", distances, false
	}
	return best.Location, distances, true
}

// BestMatch uses a Matcher with DefaultK.
func BestMatch(live Fingerprint, fps []Fingerprint) (string, []LocationDistance, bool) {
	return Matcher{}.BestMatch(live, fps)
}
