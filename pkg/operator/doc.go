// Package operator provides a client for an operator wallet platform API.
//
// The operator API is the durable side of player balances when the core
// runs behind a casino operator: the core reads the balance once per
// session and pushes one-way reconciliation syncs back.
//
// # Authentication
//
// All API requests are authenticated using:
//   - API Key: Sent in the x-api-key header
//   - HMAC Signature: SHA256 hash of the request body, sent in x-api-hmac header
//
// # Basic Usage
//
//	client := operator.NewClient(&operator.ClientConfig{
//	    BaseURL:   "https://wallet.operator.example",
//	    APIKey:    "your-api-key",
//	    APISecret: "your-api-secret",
//	    SiteCode:  "your-site",
//	})
//
//	// Exchange a lobby auth token for the player identity
//	result, err := client.Authenticate(ctx, authToken, "ruby-lines")
//
//	// Read the durable balance (cents)
//	balance, err := client.AccountBalance(ctx, result.UserID)
//
// # Error Handling
//
// API errors are returned as *APIError with a Code field indicating the error type:
//
//	err := client.ReconcileBalance(ctx, userID, gameID, before, after, "session_end")
//	if apiErr, ok := err.(*operator.APIError); ok {
//	    switch apiErr.Code {
//	    case operator.ErrUnknownPlayer:
//	        // Handle unknown player
//	    case operator.ErrDuplicateReference:
//	        // Sync already applied
//	    }
//	}
package operator
