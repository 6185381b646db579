package identity

// DefaultClientID is the Azure application the launcher signs in as.
const DefaultClientID = "0cee860d-3586-4214-8dc4-ab45b3ec0a54"

// Scopes requested for the Microsoft token.
var Scopes = []string{"XboxLive.signin", "offline_access"}

// Endpoints lists every URL the sign-in chain talks to. Tests point these at
// an httptest server.
type Endpoints struct {
	DeviceAuth     string
	Token          string
	XboxLive       string
	XSTS           string
	MinecraftLogin string
	Profile        string
}

// DefaultEndpoints are the production Microsoft, Xbox and Mojang services.
var DefaultEndpoints = Endpoints{
	DeviceAuth:     "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode",
	Token:          "https://login.microsoftonline.com/consumers/oauth2/v2.0/token",
	XboxLive:       "https://user.auth.xboxlive.com/user/authenticate",
	XSTS:           "https://xsts.auth.xboxlive.com/xsts/authorize",
	MinecraftLogin: "https://api.minecraftservices.com/launcher/login",
	Profile:        "https://api.minecraftservices.com/minecraft/profile",
}
