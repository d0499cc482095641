package handler

import (
	"fmt"
	"html"
)

const (
	protectedPage    = "<h1>Protected Resource</h1><p>You are logged in!</p>"
	unauthorizedPage = "<h1>401 Unauthorized</h1>"
	loginRequired    = `<h1>401 Unauthorized</h1><p>Login required. <a href="/login">Login</a></p>`
	invalidLogin     = "<h1>401 Unauthorized</h1><p>Invalid credentials.</p>"
	missingFields    = "<h1>400 Bad Request</h1><p>Missing username or password.</p>"
	loggedOutPage    = "<h1>Logged out</h1>"

	loginForm = `<!DOCTYPE html>
<html>
<head><title>Login</title></head>
<body>
<h1>Login</h1>
<form method="POST" action="/login">
<input name="username" placeholder="username">
<input name="password" type="password" placeholder="password">
<button type="submit">Login</button>
</form>
<p><a href="/submit-info">Register</a></p>
</body>
</html>`

	submitInfoForm = `<!DOCTYPE html>
<html>
<head><title>Register</title></head>
<body>
<h1>Register</h1>
<form method="POST" action="/submit-info">
<input name="username" placeholder="username">
<input name="password" type="password" placeholder="password">
<button type="submit">Register</button>
</form>
</body>
</html>`
)

func indexPage(username string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>peerhub</title></head>
<body>
<h1>Welcome, %s</h1>
<p><a href="/get-list">Peers</a></p>
</body>
</html>`, html.EscapeString(username))
}

func conflictPage(username string) string {
	return fmt.Sprintf("<h1>409 Conflict</h1><p>Username '%s' already exists.</p>", html.EscapeString(username))
}

func broadcastPage(delivered int) string {
	return fmt.Sprintf("<h1>Broadcast sent</h1><p>Message delivered to %d peers.</p>", delivered)
}

func sentPage(from, to string) string {
	return fmt.Sprintf("<h1>Message sent</h1><p>%s to %s</p>", html.EscapeString(from), html.EscapeString(to))
}
