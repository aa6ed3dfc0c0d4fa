package adapters

import (
	"context"

	"memberpanel/internal/directory/models"
	id "memberpanel/pkg/domain"
)

type MemberDirectory interface {
	FindMember(ctx context.Context, memberID id.MemberID) (*models.Member, error)
}

type LinkedAccounts interface {
	ExistsByMemberID(ctx context.Context, memberID id.MemberID) (bool, error)
}

// MemberLookup reads members from the directory and marks those that already own a
// panel account.
type MemberLookup struct {
	directory MemberDirectory
	accounts  LinkedAccounts
}

func NewMemberLookup(directory MemberDirectory, accounts LinkedAccounts) *MemberLookup {
	return &MemberLookup{directory: directory, accounts: accounts}
}

func (l *MemberLookup) FindMember(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	member, err := l.directory.FindMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.HasLinkedAccount {
		return member, nil
	}
	linked, err := l.accounts.ExistsByMemberID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	member.HasLinkedAccount = linked
	return member, nil
}
