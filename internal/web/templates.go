package web

import "html/template"

// Minimal server-rendered pages; layout and styling are not this
// service's concern.
var templates = template.Must(template.New("").Parse(`
{{define "login.html"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Login</title></head>
<body>
  <h2>Login</h2>
  <form method="POST" action="/login">
    <label>Username <input type="text" name="username" required></label>
    <label>Password <input type="password" name="password" required></label>
    <button type="submit">Login</button>
  </form>
  {{if .Error}}<p>Invalid credentials. Please try again.</p>{{end}}
</body>
</html>{{end}}

{{define "dashboard.html"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Admin Dashboard</title></head>
<body>
  <h2>Admin Dashboard</h2>
  <a href="/logout">Logout</a>
  <table border="1" cellpadding="4">
    <thead>
      <tr><th>Avatar</th><th>Name</th><th>Today</th><th>Weekly</th><th>Monthly</th><th>All-Time</th></tr>
    </thead>
    <tbody>
      {{range .Admins}}
      <tr>
        <td><img src="{{.AvatarURL}}" alt="{{.Name}}" width="50" height="50"></td>
        <td>{{.Name}}{{if .InVoice}} (in voice){{end}}</td>
        <td>{{.TodayTime}}</td>
        <td>{{.WeeklyTime}}</td>
        <td>{{.MonthlyTime}}</td>
        <td>{{.TotalTime}}</td>
      </tr>
      {{end}}
    </tbody>
  </table>
</body>
</html>{{end}}
`))
