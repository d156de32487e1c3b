package services

import (
	"time"

	"harbor-backend/internal/models"
)

// maxTreeDepth bounds the referral tree traversal. Referral data is
// externally influenced, so the walk must terminate even if the stored
// edges contain a cycle.
const maxTreeDepth = 64

// TreeNode is one user in the referral tree with everyone they referred
// nested beneath them.
type TreeNode struct {
	UserID    string      `json:"user_id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	CreatedAt time.Time   `json:"created_at"`
	Referrals []*TreeNode `json:"referrals"`
	// Truncated marks a node whose subtree was cut off by the depth cap
	// or by a revisit of an already expanded user.
	Truncated bool `json:"truncated,omitempty"`
}

// BuildTree resolves the full referral tree rooted at userID. Child order
// follows the order users were referred in. Orphaned referral ids are
// filtered out; cycles and over-deep chains yield a truncated partial
// tree instead of unbounded recursion.
func (s *ReferralService) BuildTree(userID uint) (*TreeNode, error) {
	root, err := s.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, ErrUserNotFound
	}

	visited := map[uint]bool{root.ID: true}
	node, err := s.buildSubtree(root, visited, 0)
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (s *ReferralService) buildSubtree(user *models.User, visited map[uint]bool, depth int) (*TreeNode, error) {
	node := &TreeNode{
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		Referrals: []*TreeNode{},
	}

	if depth >= maxTreeDepth {
		node.Truncated = true
		return node, nil
	}

	referrals, err := s.users.ListReferrals(user.ID)
	if err != nil {
		return nil, err
	}
	if len(referrals) == 0 {
		return node, nil
	}

	ids := make([]uint, 0, len(referrals))
	for _, r := range referrals {
		ids = append(ids, r.ReferredUserID)
	}

	children, err := s.users.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.User, len(children))
	for _, c := range children {
		byID[c.ID] = c
	}

	for _, id := range ids {
		child, ok := byID[id]
		if !ok {
			// Referral points at a user that no longer resolves.
			continue
		}
		if visited[child.ID] {
			node.Truncated = true
			continue
		}
		visited[child.ID] = true

		childNode, err := s.buildSubtree(&child, visited, depth+1)
		if err != nil {
			return nil, err
		}
		node.Referrals = append(node.Referrals, childNode)
	}

	return node, nil
}
