package api

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>socksd</title>
<style>
body{font-family:-apple-system,Segoe UI,Helvetica,Arial,sans-serif;background:#0f1117;color:#e1e4e8;margin:2rem}
h1{font-size:1.25rem;color:#58a6ff}
table{border-collapse:collapse;margin-top:1rem}
td{padding:.25rem 1rem .25rem 0;border-bottom:1px solid #30363d}
td.k{color:#8b949e}
a{color:#58a6ff}
#err{color:#f85149}
</style>
</head>
<body>
<h1>socksd</h1>
<table id="fields"></table>
<p id="err"></p>
<p><a href="/metrics">/metrics</a> &middot; <a href="/health">/health</a></p>
<script>
function row(k, v) {
  var tr = document.createElement('tr');
  var tk = document.createElement('td'); tk.className = 'k'; tk.textContent = k;
  var tv = document.createElement('td'); tv.textContent = v;
  tr.appendChild(tk); tr.appendChild(tv);
  return tr;
}
fetch('/status').then(function(r){ return r.json() }).then(function(s){
  var t = document.getElementById('fields');
  t.appendChild(row('uptime (s)', s.uptime_seconds));
  t.appendChild(row('go version', s.go_version));
  t.appendChild(row('goroutines', s.goroutines));
  t.appendChild(row('socks5 port', s.listen.socks5_port));
  t.appendChild(row('http port', s.listen.http_port));
  t.appendChild(row('api port', s.listen.api_port));
  t.appendChild(row('auth enabled', s.auth_enabled));
  t.appendChild(row('auth backend', s.auth_backend));
  t.appendChild(row('active socks5 connections', s.connections_active.socks5));
  t.appendChild(row('active http connections', s.connections_active.http));
}).catch(function(e){
  document.getElementById('err').textContent = 'failed to load /status: ' + e;
});
</script>
</body>
</html>
`
