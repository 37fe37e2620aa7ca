package index

import (
	"encoding/json"
	"fmt"
	"strings"
)

// defaultOverfetchFloor is the minimum candidate pool fetched before
// post-filters run.
const defaultOverfetchFloor = 50

// Query tunes an approximate search. Kind, Visibility and Owner are
// equality post-filters applied in that order; empty values are inactive.
type Query struct {
	Limit          int
	Kind           string
	Visibility     string
	Owner          string
	OverfetchFloor int
}

// Hit is one approximate-search result.
type Hit struct {
	FQN   string          `json:"fqn"`
	Kind  string          `json:"kind"`
	Score int             `json:"score"`
	Data  json.RawMessage `json:"data"`
}

// Grams computes the trigram set of text: "^" + lowercase(text) + "$"
// sliced into all length-3 substrings, deduplicated in first-seen order.
func Grams(text string) []string {
	runes := []rune("^" + strings.ToLower(text) + "$")
	if len(runes) < 3 {
		return nil
	}
	seen := make(map[string]bool, len(runes))
	var out []string
	for i := 0; i+3 <= len(runes); i++ {
		g := string(runes[i : i+3])
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

func gramUnion(name, fqn string) []string {
	seen := map[string]bool{}
	var out []string
	for _, g := range Grams(name) {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	for _, g := range Grams(fqn) {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

// SearchApprox scores candidates by shared trigram count against the
// fragment, ordered by descending score then ascending FQN. An
// over-provisioned pool of max(floor, limit*5) rows is fetched before the
// post-filters apply, so filtered results are top-limit within that pool
// only, not globally.
func (s *Store) SearchApprox(fragment string, q Query) ([]Hit, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	floor := q.OverfetchFloor
	if floor <= 0 {
		floor = defaultOverfetchFloor
	}
	pool := limit * 5
	if pool < floor {
		pool = floor
	}

	grams := Grams(fragment)
	if len(grams) == 0 {
		return []Hit{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(grams)), ",")
	query := fmt.Sprintf(`
		SELECT s.fqn, s.kind, s.data, COUNT(*) AS score
		FROM grams g
		JOIN symbols s ON s.id = g.id
		WHERE g.gram IN (%s)
		GROUP BY s.id
		ORDER BY score DESC, s.fqn ASC
		LIMIT ?`, placeholders)

	args := make([]any, 0, len(grams)+1)
	for _, g := range grams {
		args = append(args, g)
	}
	args = append(args, pool)

	rows, err := s.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	hits := []Hit{}
	for rows.Next() {
		var h Hit
		var data string
		if err := rows.Scan(&h.FQN, &h.Kind, &data, &h.Score); err != nil {
			return nil, err
		}
		h.Data = json.RawMessage(data)

		if q.Kind != "" && h.Kind != q.Kind {
			continue
		}
		if q.Visibility != "" && objectField(h.Data, "visibility") != q.Visibility {
			continue
		}
		if q.Owner != "" && objectField(h.Data, "owner") != q.Owner {
			continue
		}
		hits = append(hits, h)
		if len(hits) >= limit {
			break
		}
	}
	return hits, rows.Err()
}

// objectField reads one string field out of a serialized symbol object;
// null or absent fields read as "".
func objectField(data json.RawMessage, field string) string {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return ""
	}
	v, _ := obj[field].(string)
	return v
}
