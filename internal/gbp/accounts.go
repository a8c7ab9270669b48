package gbp

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/mybusinessaccountmanagement/v1"
	"google.golang.org/api/mybusinessbusinessinformation/v1"
	"google.golang.org/api/option"
)

// Account is a Business Profile account the user can manage.
type Account struct {
	// AccountID is the trailing segment of the account resource name.
	AccountID string
	Name      string
}

// DiscoveredLocation is a location listed under a specific account. The
// owning account is always explicit here; a location that cannot be
// attributed to an account is reported as an error by the caller, never
// guessed.
type DiscoveredLocation struct {
	AccountID  string
	LocationID string
	Title      string
}

// Directory discovers the accounts and locations a token can manage, via
// the Business Profile account-management and business-information APIs.
type Directory struct{}

// NewDirectory creates a Directory.
func NewDirectory() *Directory {
	return &Directory{}
}

func trailingSegment(name string) string {
	idx := strings.LastIndex(name, "/")
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

// ListAccounts returns every account the token can manage.
func (d *Directory) ListAccounts(ctx context.Context, token string) ([]Account, error) {
	svc, err := mybusinessaccountmanagement.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})))
	if err != nil {
		return nil, fmt.Errorf("create account management service: %w", err)
	}

	var out []Account
	err = svc.Accounts.List().Pages(ctx, func(resp *mybusinessaccountmanagement.ListAccountsResponse) error {
		for _, a := range resp.Accounts {
			out = append(out, Account{
				AccountID: trailingSegment(a.Name),
				Name:      a.AccountName,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return out, nil
}

// ListLocations returns every location under the given account.
func (d *Directory) ListLocations(ctx context.Context, accountID, token string) ([]DiscoveredLocation, error) {
	svc, err := mybusinessbusinessinformation.NewService(ctx,
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})))
	if err != nil {
		return nil, fmt.Errorf("create business information service: %w", err)
	}

	var out []DiscoveredLocation
	call := svc.Accounts.Locations.List("accounts/" + accountID).ReadMask("name,title")
	err = call.Pages(ctx, func(resp *mybusinessbusinessinformation.ListLocationsResponse) error {
		for _, l := range resp.Locations {
			out = append(out, DiscoveredLocation{
				AccountID:  accountID,
				LocationID: trailingSegment(l.Name),
				Title:      l.Title,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list locations for account %s: %w", accountID, err)
	}
	return out, nil
}
