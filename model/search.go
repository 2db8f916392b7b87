package model

import "github.com/sahilm/fuzzy"

// ConversationMatch is one fuzzy search hit over the stored collection.
type ConversationMatch struct {
	Conversation Conversation
	Score        int
}

// SearchConversations fuzzy-matches query against conversation titles and
// returns hits ranked best-first. An empty query returns every conversation
// in insertion order with a zero score.
func (s *ChatStore) SearchConversations(query string) []ConversationMatch {
	convs := s.Conversations()

	if query == "" {
		out := make([]ConversationMatch, 0, len(convs))
		for _, c := range convs {
			out = append(out, ConversationMatch{Conversation: c})
		}
		return out
	}

	titles := make([]string, len(convs))
	for i, c := range convs {
		titles[i] = c.Title
	}

	matches := fuzzy.Find(query, titles)
	out := make([]ConversationMatch, 0, len(matches))
	for _, m := range matches {
		out = append(out, ConversationMatch{
			Conversation: convs[m.Index],
			Score:        m.Score,
		})
	}
	return out
}
