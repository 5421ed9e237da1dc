// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package diskspace

import "testing"

var destVols = []Volume{
	{MountPoint: `C:\`, FreeKB: 50_000_000},
	{MountPoint: `D:\`, FreeKB: 200_000_000},
	{MountPoint: `D:\FastSSD\`, FreeKB: 10_000_000},
}

func TestMountFor(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		want  string
		found bool
	}{
		{
			name:  "plain drive",
			path:  `C:\Data\app.mdf`,
			want:  `C:\`,
			found: true,
		},
		{
			name:  "nested mount wins over drive root",
			path:  `D:\FastSSD\tempdb.mdf`,
			want:  `D:\FastSSD\`,
			found: true,
		},
		{
			name:  "sibling path stays on the drive root",
			path:  `D:\Data\app.mdf`,
			want:  `D:\`,
			found: true,
		},
		{
			name:  "case insensitive",
			path:  `d:\fastssd\x.ndf`,
			want:  `D:\FastSSD\`,
			found: true,
		},
		{
			name:  "no matching volume",
			path:  `E:\Data\app.mdf`,
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := MountFor(tt.path, destVols)
			if ok != tt.found {
				t.Fatalf("found = %v, want %v", ok, tt.found)
			}
			if ok && v.MountPoint != tt.want {
				t.Errorf("MountPoint = %q, want %q", v.MountPoint, tt.want)
			}
		})
	}
}

func TestMountForLinuxPaths(t *testing.T) {
	vols := []Volume{
		{MountPoint: "/", FreeKB: 1000},
		{MountPoint: "/var/opt/mssql", FreeKB: 9000},
	}

	v, ok := MountFor("/var/opt/mssql/data/master.mdf", vols)
	if !ok || v.MountPoint != "/var/opt/mssql" {
		t.Errorf("got %+v ok=%v, want the /var/opt/mssql volume", v, ok)
	}

	v, ok = MountFor("/tmp/backup.bak", vols)
	if !ok || v.MountPoint != "/" {
		t.Errorf("got %+v ok=%v, want the root volume", v, ok)
	}
}

func TestCompare(t *testing.T) {
	source := []DBFile{
		{Database: "AppDB", LogicalName: "AppDB_Data", PhysicalName: `E:\SQLData\AppDB.mdf`, Type: "ROWS", SizeKB: 900},
		{Database: "AppDB", LogicalName: "AppDB_Log", PhysicalName: `E:\SQLLog\AppDB.ldf`, Type: "LOG", SizeKB: 300},
		{Database: "AppDB", LogicalName: "AppDB_Archive", PhysicalName: `D:\Archive\AppDB_arch.ndf`, Type: "ROWS", SizeKB: 400},
	}
	dest := []DBFile{
		{Database: "AppDB", LogicalName: "appdb_data", PhysicalName: `D:\Data\AppDB.mdf`, Type: "ROWS", SizeKB: 500},
		{Database: "AppDB", LogicalName: "AppDB_Log", PhysicalName: `D:\Data\AppDB.ldf`, Type: "LOG", SizeKB: 350},
		{Database: "AppDB", LogicalName: "AppDB_Old", PhysicalName: `C:\Old\AppDB_old.ndf`, Type: "ROWS", SizeKB: 100},
	}

	deltas := Compare(source, dest, destVols)
	if len(deltas) != 4 {
		t.Fatalf("got %d deltas, want 4: %+v", len(deltas), deltas)
	}

	// Matched by logical name ignoring case, charged to the dest file's mount.
	d := deltas[0]
	if d.Status != StatusBoth || d.DiffKB != 400 || d.Mount != `D:\` {
		t.Errorf("matched data file: %+v", d)
	}
	if d.SourcePath != `E:\SQLData\AppDB.mdf` || d.DestPath != `D:\Data\AppDB.mdf` {
		t.Errorf("matched data file paths: %+v", d)
	}

	// Matched log shrinks: dest already has more than the source needs.
	if deltas[1].DiffKB != -50 || deltas[1].Status != StatusBoth {
		t.Errorf("matched log file: %+v", deltas[1])
	}

	// Source-only file maps through its source path against dest volumes.
	d = deltas[2]
	if d.Status != StatusSourceOnly || d.DiffKB != 400 || d.Mount != `D:\` {
		t.Errorf("source-only file: %+v", d)
	}
	if d.DestPath != "" {
		t.Errorf("source-only file must not carry a dest path: %+v", d)
	}

	// Dest-only file frees its size.
	d = deltas[3]
	if d.Status != StatusDestOnly || d.DiffKB != -100 || d.Mount != `C:\` {
		t.Errorf("dest-only file: %+v", d)
	}
}

func TestCompareUnknownMount(t *testing.T) {
	source := []DBFile{
		{Database: "AppDB", LogicalName: "AppDB_Data", PhysicalName: `Z:\Data\AppDB.mdf`, Type: "ROWS", SizeKB: 100},
	}

	deltas := Compare(source, nil, destVols)
	if len(deltas) != 1 || deltas[0].Mount != MountUnknown {
		t.Errorf("got %+v, want mount %q", deltas, MountUnknown)
	}
}

func TestSummarize(t *testing.T) {
	deltas := []FileDelta{
		{Mount: `D:\`, DiffKB: 400},
		{Mount: `D:\`, DiffKB: 350},
		{Mount: `C:\`, DiffKB: -100},
		{Mount: MountUnknown, DiffKB: 50},
	}

	sums := Summarize(deltas, destVols)
	if len(sums) != 3 {
		t.Fatalf("got %d summaries, want 3: %+v", len(sums), sums)
	}

	// Sorted by mount: "(unknown)", C:\, D:\.
	if sums[0].Mount != MountUnknown || sums[0].KnownFree {
		t.Errorf("unknown mount summary: %+v", sums[0])
	}
	if sums[1].Mount != `C:\` || sums[1].RequiredKB != -100 || !sums[1].Fits {
		t.Errorf("C: summary: %+v", sums[1])
	}
	if sums[2].Mount != `D:\` || sums[2].RequiredKB != 750 || !sums[2].KnownFree || !sums[2].Fits {
		t.Errorf("D: summary: %+v", sums[2])
	}
}

func TestSummarizeDetectsShortfall(t *testing.T) {
	deltas := []FileDelta{{Mount: `D:\FastSSD\`, DiffKB: 20_000_000}}

	sums := Summarize(deltas, destVols)
	if len(sums) != 1 {
		t.Fatalf("got %+v", sums)
	}
	if sums[0].Fits {
		t.Errorf("20 GB must not fit on a 10 GB volume: %+v", sums[0])
	}
}

func TestVolumeCache(t *testing.T) {
	vc := NewVolumeCache()

	if _, ok := vc.Get("SQLHOST01"); ok {
		t.Fatal("expected empty cache")
	}

	vols := []Volume{{MountPoint: `C:\`, FreeKB: 42}}
	vc.Put("SqlHost01", vols)

	got, ok := vc.Get("SQLHOST01")
	if !ok || len(got) != 1 || got[0].FreeKB != 42 {
		t.Errorf("machine key should be case-insensitive: %+v ok=%v", got, ok)
	}
}
