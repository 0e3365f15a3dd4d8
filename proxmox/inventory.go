package proxmox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Row is one display entry returned by an inventory operation. Keys are
// human-readable column names, ready for table rendering by the host.
type Row = map[string]interface{}

// ValidTimeframes are the RRD windows Proxmox accepts.
var ValidTimeframes = map[string]bool{
	"hour": true, "day": true, "week": true, "month": true, "year": true,
}

// Inventory is the read-only query facade over a Proxmox cluster. It
// holds a TTL-gated cached API client: the handle is reused while
// younger than Config.CacheTTL and rebuilt on the first call after
// expiry.
type Inventory struct {
	cfg Config
	log hclog.Logger

	mu      sync.Mutex
	client  *Client
	created time.Time
}

// NewInventory creates an inventory facade for the given cluster config.
func NewInventory(cfg Config, log hclog.Logger) *Inventory {
	if log == nil {
		log = hclog.Default()
	}
	return &Inventory{cfg: cfg, log: log}
}

// api returns the cached client, rebuilding it when the TTL has lapsed.
func (inv *Inventory) api() *Client {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	ttl := inv.cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	if inv.client == nil || time.Since(inv.created) >= ttl {
		inv.client = NewClient(inv.cfg, inv.log)
		inv.created = time.Now()
	}
	return inv.client
}

// ListNodes lists all cluster nodes with status and resource usage.
func (inv *Inventory) ListNodes(ctx context.Context) ([]Row, error) {
	var nodes []Node
	if err := inv.api().GetData(ctx, "/api2/json/nodes", &nodes); err != nil {
		return nil, err
	}

	results := make([]Row, 0, len(nodes))
	for _, node := range nodes {
		results = append(results, Row{
			"Node":             node.Node,
			"Status":           node.Status,
			"CPU Usage (%)":    Percent(node.CPU*100, 100),
			"Memory Usage (%)": Percent(node.Mem, node.MaxMem),
			"Disk Usage (%)":   Percent(node.Disk, node.MaxDisk),
		})
	}
	return results, nil
}

// NodeStatus returns detailed status for a single node.
func (inv *Inventory) NodeStatus(ctx context.Context, node string) ([]Row, error) {
	if node == "" {
		return nil, fmt.Errorf("node name is required")
	}

	var status NodeStatus
	path := fmt.Sprintf("/api2/json/nodes/%s/status", node)
	if err := inv.api().GetData(ctx, path, &status); err != nil {
		return nil, err
	}

	return []Row{{
		"Node":             node,
		"Uptime":           Uptime(status.Uptime),
		"Load Average":     strings.Join(status.LoadAvg, ", "),
		"CPUs":             status.CPUInfo.CPUs,
		"Memory Used (GB)": GiB(status.Memory.Used),
		"Memory (GB)":      GiB(status.Memory.Total),
		"Memory (%)":       Percent(status.Memory.Used, status.Memory.Total),
		"RootFS Used (GB)": GiB(status.RootFS.Used),
		"RootFS (GB)":      GiB(status.RootFS.Total),
		"RootFS (%)":       Percent(status.RootFS.Used, status.RootFS.Total),
		"PVE Version":      status.PVEVersion,
	}}, nil
}

// ListVMs lists QEMU VMs on one node, or across every node when node is
// empty.
func (inv *Inventory) ListVMs(ctx context.Context, node string) ([]Row, error) {
	return inv.listGuests(ctx, node, "qemu")
}

// ListContainers lists LXC containers on one node, or across every node
// when node is empty.
func (inv *Inventory) ListContainers(ctx context.Context, node string) ([]Row, error) {
	return inv.listGuests(ctx, node, "lxc")
}

// ListAllVMs enumerates QEMU VMs across all nodes. The returned row count
// is the sum of the per-node counts.
func (inv *Inventory) ListAllVMs(ctx context.Context) ([]Row, error) {
	return inv.listGuests(ctx, "", "qemu")
}

func (inv *Inventory) listGuests(ctx context.Context, node, kind string) ([]Row, error) {
	if node != "" {
		return inv.guestsOnNode(ctx, node, kind)
	}

	var nodes []Node
	if err := inv.api().GetData(ctx, "/api2/json/nodes", &nodes); err != nil {
		return nil, err
	}

	// Sequential fan-out: one cluster listing plus one call per node.
	// Failed branches are skipped so one dead node doesn't hide the rest.
	var results []Row
	for _, n := range nodes {
		rows, err := inv.guestsOnNode(ctx, n.Node, kind)
		if err != nil {
			inv.log.Debug("proxmox: skipping node in guest listing",
				"node", n.Node, "kind", kind, "error", err)
			continue
		}
		results = append(results, rows...)
	}
	return results, nil
}

func (inv *Inventory) guestsOnNode(ctx context.Context, node, kind string) ([]Row, error) {
	var guests []GuestInfo
	path := fmt.Sprintf("/api2/json/nodes/%s/%s", node, kind)
	if err := inv.api().GetData(ctx, path, &guests); err != nil {
		return nil, err
	}

	results := make([]Row, 0, len(guests))
	for _, guest := range guests {
		results = append(results, Row{
			"VMID":        guest.VMID,
			"Name":        guest.Name,
			"Status":      guest.Status,
			"Node":        node,
			"Memory (GB)": GiB(guest.MaxMem),
			"Uptime":      Uptime(guest.Uptime),
		})
	}
	return results, nil
}

// NASTypes are the storage types treated as network-attached.
var nasTypes = map[string]bool{
	"nfs": true, "cifs": true, "glusterfs": true, "iscsi": true,
}

// StorageSummary lists storage pools for the cluster, or for one node
// when node is set. With nasOnly, only network-attached pool types are
// returned. Snapshot counts come from the per-pool content listing and
// are only available for per-node queries.
func (inv *Inventory) StorageSummary(ctx context.Context, node string, nasOnly bool) ([]Row, error) {
	path := "/api2/json/storage"
	if node != "" {
		path = fmt.Sprintf("/api2/json/nodes/%s/storage", node)
	}

	var pools []StorageEntry
	if err := inv.api().GetData(ctx, path, &pools); err != nil {
		return nil, err
	}

	results := make([]Row, 0, len(pools))
	for _, pool := range pools {
		if nasOnly && !nasTypes[pool.Type] {
			continue
		}

		snapshotCount := 0
		if node != "" && pool.Storage != "" {
			contentPath := fmt.Sprintf("/api2/json/nodes/%s/storage/%s/content", node, pool.Storage)
			var items []ContentItem
			if err := inv.api().GetData(ctx, contentPath, &items); err != nil {
				inv.log.Debug("proxmox: skipping content listing",
					"node", node, "storage", pool.Storage, "error", err)
			} else {
				for _, item := range items {
					if item.Content == "snapshot" {
						snapshotCount++
					}
				}
			}
		}

		nasDevices := "No"
		if nasTypes[pool.Type] && pool.Type != "glusterfs" && pool.Server != "" {
			nasDevices = pool.Server
		}

		results = append(results, Row{
			"Storage":              pool.Storage,
			"Type":                 pool.Type,
			"Total (GB)":           GiB(pool.Total),
			"Used (GB)":            GiB(pool.Used),
			"Available (GB)":       GiB(pool.Avail),
			"Usage (%)":            Percent(pool.Used, pool.Total),
			"Snapshot Count":       snapshotCount,
			"NAS Devices Attached": nasDevices,
		})
	}
	return results, nil
}

// HistoricalStats fetches RRD history for a node or VM. target is "node"
// or "vm"; targetID is the node name or VMID; node is required when
// target is "vm". Points missing any of cpu/mem/disk are skipped and a
// trailing warning row reports the skip count.
func (inv *Inventory) HistoricalStats(ctx context.Context, target, targetID, node, timeframe string) ([]Row, error) {
	if timeframe == "" {
		timeframe = "hour"
	}
	if !ValidTimeframes[timeframe] {
		return nil, fmt.Errorf("invalid timeframe %q (use hour, day, week, month or year)", timeframe)
	}

	var path string
	switch target {
	case "node":
		path = fmt.Sprintf("/api2/json/nodes/%s/rrddata?timeframe=%s", targetID, timeframe)
	case "vm":
		if node == "" {
			return nil, fmt.Errorf("node name required for VM historical stats")
		}
		path = fmt.Sprintf("/api2/json/nodes/%s/qemu/%s/rrddata?timeframe=%s", node, targetID, timeframe)
	default:
		return nil, fmt.Errorf("invalid target type %q (use 'vm' or 'node')", target)
	}

	var points []RRDPoint
	if err := inv.api().GetData(ctx, path, &points); err != nil {
		return nil, err
	}

	var results []Row
	skipped := 0
	for _, point := range points {
		if point.CPU == nil || point.Mem == nil || point.Disk == nil {
			skipped++
			continue
		}
		results = append(results, Row{
			"timestamp":   point.Time,
			"CPU":         *point.CPU,
			"Memory (MB)": MiB(*point.Mem),
			"Disk (MB)":   MiB(*point.Disk),
		})
	}
	if skipped > 0 {
		results = append(results, Row{
			"warning": fmt.Sprintf("%d entries skipped due to missing data.", skipped),
		})
	}
	return results, nil
}

// ListTasks lists recent tasks on a node.
func (inv *Inventory) ListTasks(ctx context.Context, node string) ([]Row, error) {
	if node == "" {
		return nil, fmt.Errorf("node name is required")
	}

	var tasks []Task
	path := fmt.Sprintf("/api2/json/nodes/%s/tasks", node)
	if err := inv.api().GetData(ctx, path, &tasks); err != nil {
		return nil, err
	}

	results := make([]Row, 0, len(tasks))
	for _, task := range tasks {
		results = append(results, Row{
			"UPID":    task.UPID,
			"Type":    task.Type,
			"Status":  task.Status,
			"User":    task.User,
			"Started": EpochTime(task.StartTime),
			"Ended":   EpochTime(task.EndTime),
		})
	}
	return results, nil
}

// ListUsers lists API users and their expiry.
func (inv *Inventory) ListUsers(ctx context.Context) ([]Row, error) {
	var users []User
	if err := inv.api().GetData(ctx, "/api2/json/access/users", &users); err != nil {
		return nil, err
	}

	results := make([]Row, 0, len(users))
	for _, user := range users {
		expires := "never"
		if user.Expire > 0 {
			expires = EpochTime(user.Expire)
		}
		results = append(results, Row{
			"User":    user.UserID,
			"Enabled": user.Enable == 1,
			"Expires": expires,
			"Comment": user.Comment,
		})
	}
	return results, nil
}

// ListSnapshots enumerates snapshots of every VM, across all nodes or on
// one node. Branches that fail (dead node, locked VM) are skipped.
// Proxmox's synthetic "current" entry is filtered out.
func (inv *Inventory) ListSnapshots(ctx context.Context, node string) ([]Row, error) {
	var nodeNames []string
	if node != "" {
		nodeNames = []string{node}
	} else {
		var nodes []Node
		if err := inv.api().GetData(ctx, "/api2/json/nodes", &nodes); err != nil {
			return nil, err
		}
		for _, n := range nodes {
			nodeNames = append(nodeNames, n.Node)
		}
	}

	var results []Row
	for _, name := range nodeNames {
		var guests []GuestInfo
		guestPath := fmt.Sprintf("/api2/json/nodes/%s/qemu", name)
		if err := inv.api().GetData(ctx, guestPath, &guests); err != nil {
			inv.log.Debug("proxmox: skipping node in snapshot listing",
				"node", name, "error", err)
			continue
		}

		for _, guest := range guests {
			var snapshots []Snapshot
			snapPath := fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/snapshot", name, guest.VMID)
			if err := inv.api().GetData(ctx, snapPath, &snapshots); err != nil {
				inv.log.Debug("proxmox: skipping VM in snapshot listing",
					"node", name, "vmid", guest.VMID, "error", err)
				continue
			}

			for _, snap := range snapshots {
				if snap.Name == "current" {
					continue
				}
				results = append(results, Row{
					"Node":        name,
					"VMID":        guest.VMID,
					"Snapshot":    snap.Name,
					"Description": strings.TrimSpace(snap.Description),
					"Created":     EpochTime(snap.SnapTime),
				})
			}
		}
	}
	return results, nil
}

// Help returns static usage text for the tool.
func Help() string {
	return `ProxmoxWeaver Tool - Available Operations:

1. list_nodes
   - Description: List all cluster nodes with status, CPU, memory and disk usage.
   - Example Prompt: Show me all Proxmox nodes and their load.

2. node_status
   - Description: Detailed status for one node (uptime, load, memory, root filesystem).
   - Example Prompt: How is node 'pve1' doing?

3. list_vms / list_containers
   - Description: List QEMU VMs or LXC containers on a node, or across all nodes when no node is given.
   - Example Prompt: List the VMs on node 'pve1'.

4. list_all_vms
   - Description: Enumerate every VM across every node.
   - Example Prompt: Show me all VMs in the cluster.

5. storage_summary
   - Description: List storage pools (including NAS devices) for the cluster or a node.
   - Usage: storage_summary with node='pve1' and nas_only=true
   - Example Prompt: Show me all storage pools for node 'pve1', including NAS devices.

6. historical_stats
   - Description: Fetch historical CPU, memory, and disk usage for a VM or node.
   - Usage: historical_stats with target='vm', target_id='101', node='pve1', timeframe='day'
   - Example Prompt: Get historical stats for VM 101 on node 'pve1' for the past day.

7. list_tasks
   - Description: Recent tasks on a node with status and timing.
   - Example Prompt: What ran recently on node 'pve1'?

8. list_users
   - Description: API users, whether enabled, and expiry.
   - Example Prompt: List the Proxmox users.

9. list_snapshots
   - Description: Enumerate VM snapshots across the cluster or on one node.
   - Example Prompt: Which snapshots exist on node 'pve1'?

Troubleshooting:
- If you see an error, check your API credentials and network connectivity.
- Timeframes for historical_stats: hour, day, week, month, year.`
}
