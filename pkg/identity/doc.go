// Package identity signs a user in with a Microsoft account and exchanges the
// resulting token for a Minecraft access token.
//
// The device-code flow is issued through golang.org/x/oauth2. Polling is done
// here rather than by the oauth2 package because only three error values end
// the flow; everything else the token endpoint reports is treated as transient.
// The Xbox Live, XSTS and Minecraft exchanges are plain JSON POSTs.
//
// Accounts persists signed-in users in users.json so later launches can reuse
// a still-valid Minecraft token without prompting again.
package identity
