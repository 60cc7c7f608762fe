package bootstrap

import (
	"encoding/json"
	"net/http"

	keepalive "github.com/st-keller/keepalive-client"
	"github.com/st-keller/keepalive-client/standard"
)

// Status is the body served on /status.
type Status struct {
	ClientID string              `json:"client_id"`
	Target   string              `json:"target"`
	Interval string              `json:"interval"`
	Running  bool                `json:"running"`
	Pings    []standard.Snapshot `json:"pings"`
}

func writeStatus(w http.ResponseWriter, client *keepalive.Client) {
	status := Status{
		ClientID: client.ID(),
		Target:   client.Target(),
		Interval: client.Interval().String(),
		Running:  client.Running(),
		Pings:    client.Tracker().Data(),
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
