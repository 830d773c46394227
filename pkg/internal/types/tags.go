package types

// TagCatalog 固定的物品类别目录，供客户端填充选择菜单.
// 物品上的 tag 仍按自由文本存储.
var TagCatalog = []string{
	"Tablets",
	"Carregadores",
	"Telemóveis",
	"Auscultadores/Fones",
	"Portáteis",
}

// KnownTag 判断标签是否在目录中，创建接口据此拒绝目录之外的标签.
func KnownTag(tag string) bool {
	for _, t := range TagCatalog {
		if t == tag {
			return true
		}
	}

	return false
}
