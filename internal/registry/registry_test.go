package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/realityserver/internal/model"
	"github.com/vk/realityserver/internal/objectid"
)

func TestNew_RequiresResolver(t *testing.T) {
	assert.Panics(t, func() { New(Options{}) })
}

func TestDeclareNode_AutoVivifies(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)

	object, ok := r.Object(lampID)
	require.True(t, ok)
	assert.Equal(t, "lamp", object.Name)
	assert.True(t, object.Developer)

	frame, ok := object.Frames[objectid.NewFrameKey(lampID, "sphere")]
	require.True(t, ok)
	assert.Equal(t, model.VisualizationAR, frame.Visualization)

	node := mustNode(t, r, "sphere", "hue")
	assert.Equal(t, "node", node.Type)
	assert.Equal(t, lampID, node.ObjectID)
	assert.Equal(t, string(lampID)+"sphere", node.FrameID)
	assert.Equal(t, float64(defaultFrameSize), node.FrameSizeX)
	assert.Equal(t, float64(defaultFrameSize), node.FrameSizeY)
	assert.GreaterOrEqual(t, node.X, -100.0)
	assert.LessOrEqual(t, node.X, 100.0)
}

func TestDeclareNode_UnknownObjectGetsID(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.DeclareNode(context.Background(), "fan", "main", "speed", "node", nil)

	id, ok := r.Resolver().Resolve("fan")
	require.True(t, ok)
	_, ok = r.Object(id)
	assert.True(t, ok)
}

func TestDeclareNode_RedeclareKeepsPosition(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)
	first := mustNode(t, r, "sphere", "hue")

	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)
	second := mustNode(t, r, "sphere", "hue")
	assert.Equal(t, first.X, second.X)
	assert.Equal(t, first.Y, second.Y)

	r.DeclareNode(ctx, "lamp", "sphere", "hue", "switch", &Position{X: 7, Y: 9})
	third := mustNode(t, r, "sphere", "hue")
	assert.Equal(t, first.X, third.X, "explicit position only applies to new nodes")
	assert.Equal(t, "switch", third.Type)
}

func TestDeclareNode_ExplicitPosition(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.DeclareNode(context.Background(), "lamp", "sphere", "hue", "node", &Position{X: -50, Y: 25})

	node := mustNode(t, r, "sphere", "hue")
	assert.Equal(t, -50.0, node.X)
	assert.Equal(t, 25.0, node.Y)
}

func TestDeclareNode_ResetsAlias(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)
	r.RenameNode(ctx, "lamp", "sphere", "hue", "Colour")
	assert.Equal(t, "Colour", mustNode(t, r, "sphere", "hue").DisplayName())

	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)
	assert.Equal(t, "hue", mustNode(t, r, "sphere", "hue").DisplayName())
}

type folderSpy struct{ created []string }

func (f *folderSpy) CreateFrameFolder(objectName, frameName string, _ model.Location) error {
	f.created = append(f.created, objectName+"/"+frameName)
	return nil
}

func TestDeclareNode_CreatesFrameFolder(t *testing.T) {
	folders := &folderSpy{}
	r := New(Options{Resolver: objectid.NewResolver(nil), Folders: folders})

	r.DeclareNode(context.Background(), "lamp", "sphere", "hue", "node", nil)

	assert.Equal(t, []string{"lamp/sphere"}, folders.created)
}

func TestWriteValue(t *testing.T) {
	r, rec := newTestRegistry(t)
	ctx := context.Background()
	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)

	r.WriteValue(ctx, "lamp", "sphere", "hue", 0.75, WithUnit("%", 0, 100))

	node := mustNode(t, r, "sphere", "hue")
	assert.Equal(t, model.Data{Value: 0.75, Mode: "f", Unit: "%", UnitMin: 0, UnitMax: 100}, node.Data)

	require.Len(t, rec.values, 1)
	change := rec.values[0]
	assert.Equal(t, nodeKey("sphere", "hue"), change.Node)
	assert.Equal(t, 0.75, change.Data.Value)
	require.Contains(t, change.Objects, lampID)

	// The snapshot is a copy.
	change.Objects[lampID].Name = "changed"
	object, _ := r.Object(lampID)
	assert.Equal(t, "lamp", object.Name)
}

func TestWriteValue_UndeclaredIsNoop(t *testing.T) {
	r, rec := newTestRegistry(t)
	ctx := context.Background()
	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)
	before := r.Snapshot()

	r.WriteValue(ctx, "lamp", "sphere", "missing", 1)
	r.WriteValue(ctx, "lamp", "cube", "hue", 1)
	r.WriteValue(ctx, "ghost", "sphere", "hue", 1)

	assert.Equal(t, before, r.Snapshot())
	assert.Empty(t, rec.values)
}

func TestWritePublicData(t *testing.T) {
	r, rec := newTestRegistry(t)
	ctx := context.Background()
	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)

	r.WritePublicData(ctx, "lamp", "sphere", "hue", "label", "red")
	r.WritePublicData(ctx, "lamp", "sphere", "missing", "label", "red")

	assert.Equal(t, "red", mustNode(t, r, "sphere", "hue").PublicData["label"])
	assert.Equal(t, []objectid.NodeKey{nodeKey("sphere", "hue")}, rec.publicData)
}

func TestRenameNode_EmitsReload(t *testing.T) {
	r, rec := newTestRegistry(t)
	ctx := context.Background()
	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)

	r.RenameNode(ctx, "lamp", "sphere", "hue", "Colour")
	r.RenameNode(ctx, "lamp", "sphere", "missing", "Other")

	require.Len(t, rec.actions, 1)
	require.NotNil(t, rec.actions[0].ReloadObject)
	assert.Equal(t, string(lampID), rec.actions[0].ReloadObject.Object)
	assert.Equal(t, string(lampID)+"sphere", rec.actions[0].ReloadObject.Frame)
}

func TestMoveAndRemoveNode(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)
	r.DeclareNode(ctx, "lamp", "sphere", "sat", "node", nil)

	r.MoveNode(ctx, "lamp", "sphere", "hue", 12, -4)
	node := mustNode(t, r, "sphere", "hue")
	assert.Equal(t, 12.0, node.X)
	assert.Equal(t, -4.0, node.Y)

	r.RemoveNode(ctx, "lamp", "sphere", "hue")
	nodes := r.Nodes("lamp", "sphere")
	assert.NotContains(t, nodes, nodeKey("sphere", "hue").String())
	assert.Contains(t, nodes, nodeKey("sphere", "sat").String())

	r.RemoveAllNodes(ctx, "lamp", "sphere")
	assert.Empty(t, r.Nodes("lamp", "sphere"))

	assert.NotPanics(t, func() {
		r.MoveNode(ctx, "ghost", "sphere", "hue", 1, 1)
		r.RemoveNode(ctx, "lamp", "cube", "hue")
		r.RemoveAllNodes(ctx, "ghost", "sphere")
	})
}

func TestReconcile_PrunesOmittedNode(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		r.DeclareNode(ctx, "lamp", "sphere", name, "node", nil)
	}
	r.DeclareNode(ctx, "lamp", "cube", "a", "node", nil)

	r.BeginDeclaration(ctx, "lamp", "sphere")
	r.DeclareNode(ctx, "lamp", "sphere", "a", "node", nil)
	r.DeclareNode(ctx, "lamp", "sphere", "c", "node", nil)
	r.Reconcile(ctx, "lamp", "sphere")

	nodes := r.Nodes("lamp", "sphere")
	assert.Len(t, nodes, 2)
	assert.Contains(t, nodes, nodeKey("sphere", "a").String())
	assert.Contains(t, nodes, nodeKey("sphere", "c").String())
	assert.Len(t, r.Nodes("lamp", "cube"), 1, "other frames are untouched")
}

func TestReconcile_KeepsOwnedNodes(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	object := model.NewObject(lampID, "lamp")
	frame := model.NewFrame(lampID, "sphere")
	logic := model.NewNode()
	logic.Name, logic.Type = "block", model.TypeLogic
	mirror := model.NewNode()
	mirror.Name, mirror.Type, mirror.Frame = "mirror", "node", "otherFrame"
	stale := model.NewNode()
	stale.Name, stale.Type = "stale", "node"
	for _, n := range []*model.Node{logic, mirror, stale} {
		frame.Nodes[nodeKey("sphere", n.Name)] = n
	}
	object.Frames[frame.Key()] = frame
	r.AddObject(object)

	r.BeginDeclaration(ctx, "lamp", "sphere")
	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)
	r.Reconcile(ctx, "lamp", "sphere")

	nodes := r.Nodes("lamp", "sphere")
	assert.Contains(t, nodes, nodeKey("sphere", "block").String())
	assert.Contains(t, nodes, nodeKey("sphere", "mirror").String())
	assert.Contains(t, nodes, nodeKey("sphere", "hue").String())
	assert.NotContains(t, nodes, nodeKey("sphere", "stale").String())
}

func TestReconcile_UndeclaredFrameUntouched(t *testing.T) {
	r, _ := newTestRegistry(t)
	object := model.NewObject(lampID, "lamp")
	frame := model.NewFrame(lampID, "loaded")
	n := model.NewNode()
	n.Name, n.Type = "x", "node"
	frame.Nodes[nodeKey("loaded", "x")] = n
	object.Frames[frame.Key()] = frame
	r.AddObject(object)

	r.Reconcile(context.Background(), "lamp", "loaded")

	assert.Len(t, r.Nodes("lamp", "loaded"), 1)
}

func TestResetAll_SkipsOwnedNodes(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	object := model.NewObject(lampID, "lamp")
	frame := model.NewFrame(lampID, "sphere")
	logic := model.NewNode()
	logic.Name, logic.Type, logic.Text = "block", model.TypeLogic, "Block alias"
	mirror := model.NewNode()
	mirror.Name, mirror.Type, mirror.Frame, mirror.Text = "mirror", "node", "otherFrame", "Mirror alias"
	plain := model.NewNode()
	plain.Name, plain.Type, plain.Text = "plain", "node", "Plain alias"
	for _, n := range []*model.Node{logic, mirror, plain} {
		frame.Nodes[nodeKey("sphere", n.Name)] = n
	}
	object.Frames[frame.Key()] = frame
	r.AddObject(object)

	var resets int
	r.AddLifecycleListener(LifecycleReset, func(context.Context) error {
		resets++
		return nil
	})

	r.ResetAll(ctx)

	assert.Equal(t, "Block alias", mustNode(t, r, "sphere", "block").Text, "logic nodes are not re-declared")
	assert.Equal(t, "Mirror alias", mustNode(t, r, "sphere", "mirror").Text, "mirrored nodes are not re-declared")
	assert.Empty(t, mustNode(t, r, "sphere", "plain").Text, "driver nodes are re-declared")
	assert.Len(t, r.Nodes("lamp", "sphere"), 3)
	assert.Equal(t, 1, resets)
}

func TestResetAll_KeepsObjectIDs(t *testing.T) {
	r := New(Options{Resolver: objectid.NewResolver(nil)})
	object := model.NewObject("orphan123456789012", "orphan")
	frame := model.NewFrame(object.ID, "main")
	n := model.NewNode()
	n.Name, n.Type = "x", "node"
	frame.Nodes[objectid.NewNodeKey(object.ID, "main", "x")] = n
	object.Frames[frame.Key()] = frame
	r.AddObject(object)

	r.ResetAll(context.Background())

	snapshot := r.Snapshot()
	assert.Len(t, snapshot, 1)
	assert.Contains(t, snapshot, object.ID)
}

func TestActivateAndDeveloper(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)

	r.Deactivate(ctx, "lamp")
	object, _ := r.Object(lampID)
	assert.True(t, object.Deactivated)

	r.Activate(ctx, "lamp")
	object, _ = r.Object(lampID)
	assert.False(t, object.Deactivated)

	r.EnableDeveloperUI(false)
	object, _ = r.Object(lampID)
	assert.False(t, object.Developer)
	assert.False(t, r.Settings().Developer)
	assert.False(t, r.Debug())
}

func TestReloadNodeUI(t *testing.T) {
	r, rec := newTestRegistry(t)

	r.ReloadNodeUI(context.Background(), "lamp")
	r.ReloadNodeUI(context.Background(), "ghost")

	require.Len(t, rec.actions, 1)
	assert.Equal(t, &model.ReloadObject{Object: string(lampID)}, rec.actions[0].ReloadObject)
	assert.Equal(t, []objectid.ObjectID{lampID}, rec.persisted)
}

func TestAdvertiseConnection(t *testing.T) {
	r, rec := newTestRegistry(t)

	r.AdvertiseConnection(context.Background(), "lamp", "sphere", "hue", true)

	require.Len(t, rec.actions, 1)
	assert.Equal(t, &model.AdvertiseConnection{
		Object: string(lampID),
		Frame:  string(lampID) + "sphere",
		Node:   string(lampID) + "spherehue",
		Logic:  true,
		Names:  []string{"lamp", "hue"},
	}, rec.actions[0].AdvertiseConnection)
}

func TestSetScreenPose(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()
	r.DeclareNode(ctx, "lamp", "sphere", "hue", "node", nil)

	ok := r.SetScreenPose(ctx, string(lampID), string(lampID)+"sphere", model.ScreenPose{X: 10, Y: 20, Scale: 2})
	require.True(t, ok)
	assert.Equal(t, model.ScreenPose{X: 10, Y: 20, Scale: 2}, r.Frames("lamp")[string(lampID)+"sphere"].Screen)

	ok = r.SetScreenPose(ctx, string(lampID), "sphere", model.ScreenPose{X: 1, Y: 1, Scale: 1})
	assert.True(t, ok, "bare frame names are accepted")

	assert.False(t, r.SetScreenPose(ctx, string(lampID), "cube", model.ScreenPose{}))
}
