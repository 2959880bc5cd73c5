package model

// ReplaceableTextures maps replaceable texture IDs to the texture path used
// in their place.
var ReplaceableTextures = map[uint32]string{
	1:  "ReplaceableTextures/TeamColor/TeamColor00.dds",
	2:  "ReplaceableTextures/TeamGlow/TeamGlow00.dds",
	11: "ReplaceableTextures/Cliff/Cliff0.dds",
	21: "", // cursor, never drawn by the viewer
	31: "ReplaceableTextures/LordaeronTree/LordaeronSummerTree.dds",
	32: "ReplaceableTextures/AshenvaleTree/AshenTree.dds",
	33: "ReplaceableTextures/BarrensTree/BarrensTree.dds",
	34: "ReplaceableTextures/NorthrendTree/NorthTree.dds",
	35: "ReplaceableTextures/Mushroom/MushroomTree.dds",
	36: "ReplaceableTextures/RuinsTree/RuinsTree.dds",
	37: "ReplaceableTextures/OutlandMushroomTree/MushroomTree.dds",
}

// ReplaceableTexture returns the path for id. ok is false for unknown or
// empty entries.
func ReplaceableTexture(id uint32) (path string, ok bool) {
	path, ok = ReplaceableTextures[id]
	return path, ok && path != ""
}
