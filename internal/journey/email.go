package journey

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"salesavor/internal/gateway"
	"salesavor/internal/notifications"
	"salesavor/internal/salesapi"
	"salesavor/internal/services"
)

// EmailGroceryList sends the current grocery list to the stored address.
// It fails with ErrMissingRecipient or ErrNoList before any network call.
// A successful send clears the address.
func (c *Controller) EmailGroceryList(ctx context.Context) (State, error) {
	c.mu.Lock()
	address := strings.TrimSpace(c.state.EmailAddress)
	if address == "" {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, ErrMissingRecipient
	}
	if c.state.GroceryList == nil {
		snapshot := c.snapshotLocked()
		c.mu.Unlock()
		return snapshot, ErrNoList
	}
	list := *c.state.GroceryList
	list.Items = slices.Clone(list.Items)
	req := salesapi.EmailRequest{Email: address, GroceryListData: list}
	if profile, ok := c.profiles.current(); ok {
		req.UserName = profile.Name
	}
	c.mu.Unlock()

	op := gateway.Op{Key: gateway.KeyEmailSend, Action: gateway.ActionEmail, Label: "Sending grocery list"}
	res := gateway.Execute(ctx, c.gateway, op, func(ctx context.Context) (salesapi.EmailResult, error) {
		result, err := c.api.EmailGroceryList(ctx, req)
		if err != nil {
			return result, err
		}
		if status := strings.ToLower(strings.TrimSpace(result.Status)); status != "" && status != "success" && status != "sent" {
			return result, services.Wrap(services.ErrTransport, "journey", "email", "email rejected: "+result.Message, nil)
		}
		return result, nil
	})
	if !res.OK() {
		c.recordFailure(gateway.ActionEmail, res.Err)
		return c.State(), res.Err
	}

	c.mu.Lock()
	if strings.TrimSpace(c.state.EmailAddress) == address {
		c.state.EmailAddress = ""
	}
	c.clearFailureLocked(gateway.ActionEmail)
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(ctx, notifications.Success(fmt.Sprintf("Grocery list sent to %s", address)))
	return snapshot, nil
}

// EmailGroceryListTo stores address and sends the grocery list to it.
func (c *Controller) EmailGroceryListTo(ctx context.Context, address string) (State, error) {
	c.SetEmailAddress(address)
	return c.EmailGroceryList(ctx)
}
