package proxmox

// Wire types for the Proxmox VE API endpoints the inventory reads.
// Fields the API omits decode to their zero values; the normalizers
// guard the divisions.

// Node is an entry from GET /api2/json/nodes.
type Node struct {
	Node    string  `json:"node"`
	Status  string  `json:"status"`
	CPU     float64 `json:"cpu"`
	Mem     float64 `json:"mem"`
	MaxMem  float64 `json:"maxmem"`
	Disk    float64 `json:"disk"`
	MaxDisk float64 `json:"maxdisk"`
	Uptime  int64   `json:"uptime"`
}

// NodeStatus is GET /api2/json/nodes/{node}/status.
type NodeStatus struct {
	Uptime  int64     `json:"uptime"`
	LoadAvg []string  `json:"loadavg"`
	Memory  DiskUsage `json:"memory"`
	RootFS  DiskUsage `json:"rootfs"`
	CPUInfo struct {
		CPUs  int    `json:"cpus"`
		Model string `json:"model"`
	} `json:"cpuinfo"`
	PVEVersion string `json:"pveversion"`
}

// DiskUsage is the used/total pair Proxmox reports for memory and
// filesystems.
type DiskUsage struct {
	Used  float64 `json:"used"`
	Total float64 `json:"total"`
	Free  float64 `json:"free"`
}

// GuestInfo is an entry from GET /api2/json/nodes/{node}/qemu or .../lxc.
type GuestInfo struct {
	VMID   int64   `json:"vmid"`
	Name   string  `json:"name"`
	Status string  `json:"status"`
	Mem    float64 `json:"mem"`
	MaxMem float64 `json:"maxmem"`
	CPU    float64 `json:"cpu"`
	CPUs   float64 `json:"cpus"`
	Uptime int64   `json:"uptime"`
}

// StorageEntry is an entry from GET /api2/json/storage or
// /api2/json/nodes/{node}/storage.
type StorageEntry struct {
	Storage string  `json:"storage"`
	Type    string  `json:"type"`
	Total   float64 `json:"total"`
	Used    float64 `json:"used"`
	Avail   float64 `json:"avail"`
	Server  string  `json:"server"`
	Content string  `json:"content"`
}

// ContentItem is an entry from the storage content listing.
type ContentItem struct {
	VolID   string `json:"volid"`
	Content string `json:"content"`
}

// RRDPoint is an entry from the rrddata endpoint. Pointer fields
// distinguish absent samples from genuine zeros so incomplete points can
// be skipped.
type RRDPoint struct {
	Time int64    `json:"time"`
	CPU  *float64 `json:"cpu"`
	Mem  *float64 `json:"mem"`
	Disk *float64 `json:"disk"`
}

// Task is an entry from GET /api2/json/nodes/{node}/tasks.
type Task struct {
	UPID      string `json:"upid"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	User      string `json:"user"`
	StartTime int64  `json:"starttime"`
	EndTime   int64  `json:"endtime"`
}

// User is an entry from GET /api2/json/access/users.
type User struct {
	UserID  string `json:"userid"`
	Enable  int    `json:"enable"`
	Expire  int64  `json:"expire"`
	Comment string `json:"comment"`
}

// Snapshot is an entry from the per-VM snapshot listing. Proxmox always
// includes a synthetic "current" entry for the live state.
type Snapshot struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SnapTime    int64  `json:"snaptime"`
	VMState     int    `json:"vmstate"`
}
