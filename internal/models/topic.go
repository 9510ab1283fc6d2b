package models

// Topic is one unit of the study catalog. Topics belong to a grade and
// subject and may nest under a parent topic; canonical study order is
// (position, id).
type Topic struct {
	ID       int64
	Grade    int
	Subject  string
	ParentID *int64
	Title    string
	Position int
}

// TopicQuestion is a multiple-choice question in a topic's question bank
type TopicQuestion struct {
	ID       int64
	TopicID  int64
	Text     string
	ChoiceA  string
	ChoiceB  string
	ChoiceC  string
	ChoiceD  string
	Correct  string
	Position int
}

// TopicNode is a topic with its children, used for the catalog tree view
type TopicNode struct {
	ID       int64        `json:"id"`
	Title    string       `json:"title"`
	Position int          `json:"position"`
	Children []*TopicNode `json:"children"`
}

// BuildTopicTree arranges topics into parent/child nodes, keeping the
// catalog's canonical ordering within each level
func BuildTopicTree(topics []Topic) []*TopicNode {
	byID := make(map[int64]*TopicNode, len(topics))
	for _, t := range topics {
		byID[t.ID] = &TopicNode{ID: t.ID, Title: t.Title, Position: t.Position, Children: []*TopicNode{}}
	}

	var roots []*TopicNode
	for _, t := range topics {
		node := byID[t.ID]
		if t.ParentID != nil {
			if parent, ok := byID[*t.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	return roots
}
