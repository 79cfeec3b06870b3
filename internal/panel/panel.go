// Package panel renders the operator dashboard as a single server-side
// HTML page. No client framework; the page reloads itself every 30
// seconds.
package panel

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/marthink/redmaker/internal/fleet"
	"github.com/marthink/redmaker/internal/store"
)

const panelHTMLTemplate = `<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Red Maker IoT - Panel de Control</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif;
      background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
      min-height: 100vh;
      padding: 20px;
    }
    .container {
      max-width: 1400px;
      margin: 0 auto;
      background: white;
      border-radius: 20px;
      box-shadow: 0 20px 60px rgba(0,0,0,0.3);
      overflow: hidden;
    }
    .header {
      background: linear-gradient(135deg, #1e3a5f 0%, #2c5282 100%);
      color: white;
      padding: 30px;
      text-align: center;
    }
    .header h1 { font-size: 36px; margin-bottom: 10px; }
    .header p { opacity: 0.9; font-size: 14px; }
    .stats {
      display: grid;
      grid-template-columns: repeat(auto-fit, minmax(250px, 1fr));
      gap: 20px;
      padding: 30px;
      background: #f8f9fa;
    }
    .stat-card {
      background: white;
      padding: 25px;
      border-radius: 15px;
      box-shadow: 0 5px 15px rgba(0,0,0,0.1);
      border-left: 5px solid #667eea;
    }
    .stat-value { font-size: 42px; font-weight: bold; color: #1e3a5f; margin-bottom: 5px; }
    .stat-label { font-size: 14px; color: #666; text-transform: uppercase; letter-spacing: 1px; }
    .content { padding: 30px; }
    .section { margin-bottom: 40px; }
    .section h2 {
      color: #1e3a5f;
      margin-bottom: 20px;
      padding-bottom: 10px;
      border-bottom: 3px solid #667eea;
      font-size: 24px;
    }
    .card {
      background: white;
      border-radius: 12px;
      box-shadow: 0 2px 10px rgba(0,0,0,0.1);
      overflow: hidden;
    }
    table { width: 100%; border-collapse: collapse; }
    thead { background: #1e3a5f; color: white; }
    th, td { padding: 16px; text-align: left; }
    th { font-weight: 600; text-transform: uppercase; font-size: 12px; letter-spacing: 1px; }
    tbody tr { border-bottom: 1px solid #e0e0e0; }
    tbody tr:hover { background: #f8f9fa; }
    .badge {
      padding: 6px 12px;
      border-radius: 20px;
      font-size: 12px;
      font-weight: bold;
      display: inline-block;
    }
    .badge-success { background: #10b981; color: white; }
    .badge-warning { background: #f59e0b; color: white; }
    .badge-danger { background: #ef4444; color: white; }
    .badge-secondary { background: #94a3b8; color: white; }
    code {
      background: #f1f3f5;
      padding: 4px 8px;
      border-radius: 4px;
      font-family: 'Courier New', monospace;
      font-size: 13px;
      color: #e91e63;
    }
    small { color: #666; }
    .empty-state { text-align: center; padding: 60px 20px; color: #666; }
    .footer {
      background: #f8f9fa;
      padding: 20px 30px;
      text-align: center;
      color: #666;
      font-size: 14px;
      border-top: 1px solid #e0e0e0;
    }
    .api-list {
      background: #e0f2fe;
      padding: 25px;
      border-radius: 12px;
      margin-top: 20px;
    }
    .api-list h3 { color: #1e3a5f; margin-bottom: 15px; }
    .api-list ul { list-style: none; }
    .api-list li { padding: 10px 0; border-bottom: 1px solid #bae6fd; }
    .api-list li:last-child { border-bottom: none; }
    .api-list strong { color: #0c4a6e; }
    @keyframes pulse {
      0%, 100% { opacity: 1; }
      50% { opacity: 0.5; }
    }
    .online-indicator {
      display: inline-block;
      width: 8px;
      height: 8px;
      border-radius: 50%;
      background: #10b981;
      animation: pulse 2s infinite;
      margin-right: 6px;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Red Maker IoT</h1>
      <p>Panel de Control - Sistema de Monitoreo de Sensores</p>
    </div>
    <div class="stats">
      <div class="stat-card">
        <div class="stat-value">{{.Stats.Devices}}</div>
        <div class="stat-label">Dispositivos Activos</div>
      </div>
      <div class="stat-card">
        <div class="stat-value">{{.Stats.CodesAvailable}}</div>
        <div class="stat-label">Códigos Disponibles</div>
      </div>
      <div class="stat-card">
        <div class="stat-value">{{.Stats.Readings}}</div>
        <div class="stat-label">Lecturas Totales</div>
      </div>
    </div>
    <div class="content">
      <div class="section">
        <h2>Dispositivos Registrados</h2>
        <div class="card">
{{- if .Devices}}
          <table>
            <thead>
              <tr>
                <th>Estado</th>
                <th>MAC Address</th>
                <th>Sede</th>
                <th>Temperatura</th>
                <th>Humedad</th>
                <th>Última Conexión</th>
              </tr>
            </thead>
            <tbody>
{{- range .Devices}}
              <tr>
                <td><span class="badge badge-{{.BadgeClass}}">{{if eq .State "online"}}<span class="online-indicator"></span>{{end}}{{.StatusLabel}}</span></td>
                <td><code>{{.MAC}}</code></td>
                <td><strong>{{.SedeNombre}}</strong><br><small>{{.SedeID}}</small></td>
                <td><strong>{{formatTemperature .Latest}}</strong></td>
                <td><strong>{{formatHumidity .Latest}}</strong></td>
                <td>{{formatTime .LastSeen}}</td>
              </tr>
{{- end}}
            </tbody>
          </table>
{{- else}}
          <div class="empty-state">
            <h3>No hay dispositivos registrados</h3>
            <p>Activa tu primer sensor con un código de activación</p>
          </div>
{{- end}}
        </div>
      </div>
      <div class="section">
        <h2>Códigos de Activación</h2>
        <div class="card">
{{- if .Codes}}
          <table>
            <thead>
              <tr>
                <th>Código</th>
                <th>Sede</th>
                <th>Estado</th>
                <th>Usado por</th>
                <th>Fecha de uso</th>
              </tr>
            </thead>
            <tbody>
{{- range .Codes}}
              <tr>
                <td><code>{{.Code}}</code></td>
                <td><strong>{{.SedeNombre}}</strong><br><small>{{.SedeID}}</small></td>
                <td>{{if .Used}}<span class="badge badge-danger">Usado</span>{{else}}<span class="badge badge-success">Disponible</span>{{end}}</td>
                <td>{{if .UsedByMAC}}<code>{{.UsedByMAC}}</code>{{else}}-{{end}}</td>
                <td>{{formatTime .UsedAt}}</td>
              </tr>
{{- end}}
            </tbody>
          </table>
{{- else}}
          <div class="empty-state">
            <h3>No hay códigos de activación</h3>
            <p>Crea códigos desde la API o la línea de comandos</p>
          </div>
{{- end}}
        </div>
      </div>
      <div class="api-list">
        <h3>Endpoints API Disponibles</h3>
        <ul>
          <li><strong>POST /api/activate</strong> - Activar un dispositivo</li>
          <li><strong>POST /api/updates</strong> - Recibir datos de sensores</li>
          <li><strong>GET /api/devices</strong> - Listar dispositivos</li>
          <li><strong>GET /api/sensor-data/{mac_address}</strong> - Datos de un dispositivo</li>
          <li><strong>POST /api/activation-codes</strong> - Crear código de activación</li>
          <li><strong>GET /api/activation-codes</strong> - Listar códigos</li>
        </ul>
      </div>
    </div>
    <div class="footer">
      <p><strong>Red Maker IoT</strong> - Sistema de Monitoreo de Sensores</p>
    </div>
  </div>
  <script>
    setTimeout(() => location.reload(), 30000);
  </script>
</body>
</html>
`

// Renderer renders the dashboard from a fleet snapshot.
type Renderer struct {
	tpl *template.Template
}

// NewRenderer parses the dashboard template. Panics on a malformed
// template, which can only happen at build time.
func NewRenderer() *Renderer {
	funcs := template.FuncMap{
		"formatTime":        formatTime,
		"formatTemperature": formatTemperature,
		"formatHumidity":    formatHumidity,
	}
	return &Renderer{
		tpl: template.Must(template.New("panel").Funcs(funcs).Parse(panelHTMLTemplate)),
	}
}

// Render produces the dashboard HTML for a snapshot.
func (r *Renderer) Render(snap fleet.Snapshot) (string, error) {
	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, snap); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func formatTime(value *time.Time) string {
	if value == nil || value.IsZero() {
		return "-"
	}
	return value.UTC().Format("2006-01-02 15:04:05")
}

func formatTemperature(r *store.Reading) string {
	if r == nil {
		return "Sin datos"
	}
	return fmt.Sprintf("%.1f°C", r.Temperatura)
}

func formatHumidity(r *store.Reading) string {
	if r == nil {
		return "Sin datos"
	}
	return fmt.Sprintf("%.0f%%", r.Humedad)
}
