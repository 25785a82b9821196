package copywriter

// Scene identifies a content category with its own prompt template.
type Scene string

// Known scenes.
const (
	SceneBeauty    Scene = "beauty"
	SceneFashion   Scene = "fashion"
	SceneTravel    Scene = "travel"
	SceneFood      Scene = "food"
	SceneHome      Scene = "home"
	SceneFitness   Scene = "fitness"
	SceneParenting Scene = "parenting"
	SceneTech      Scene = "tech"
)

// Field declares one input of a scene template.
type Field struct {
	// Key is the name of the field in the request.
	Key string `json:"key"`

	// Label is the text shown before the value in the prompt.
	Label string `json:"label"`

	// Required fields are rendered as given; optional fields fall back to
	// the placeholder when omitted.
	Required bool `json:"required"`

	// Unit is appended to a provided value (for example 天 or 分钟).
	Unit string `json:"unit,omitempty"`
}

// Definition describes a scene: its fields and the fixed parts of its
// template.
type Definition struct {
	Scene  Scene   `json:"scene"`
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`

	intro    string
	outline  []string
	style    string
	emphasis []string
}

func req(key, label string) Field { return Field{Key: key, Label: label, Required: true} }
func opt(key, label string) Field { return Field{Key: key, Label: label} }

var definitions = []Definition{
	{
		Scene: SceneBeauty,
		Name:  "美妆护肤评测",
		intro: "请为以下美妆产品生成一篇小红书风格的评测文案：",
		Fields: []Field{
			req("productName", "产品名称"),
			req("brand", "品牌"),
			opt("price", "价格"),
			opt("skinType", "适合肤质"),
			opt("texture", "质地"),
			opt("keyIngredients", "核心成分"),
			req("usageFeel", "使用感受"),
			req("effect", "效果"),
			req("recommendation", "推荐理由"),
		},
		outline: []string{
			"吸引人的标题（包含emoji）",
			"产品介绍（品牌、名称、价格等基本信息）",
			"外观包装评价",
			"质地和使用感受",
			"效果评价",
			"适合人群",
			"总结推荐",
			"相关话题标签（至少5个）",
		},
		style: "亲切自然",
		emphasis: []string{
			"包含互动引导语（如\"你们用过吗？\"、\"欢迎在评论区分享\"等）",
			"突出产品的核心卖点",
			"内容真实可信，避免过度夸大",
		},
	},
	{
		Scene: SceneFashion,
		Name:  "穿搭搭配分享",
		intro: "请为以下穿搭搭配生成一篇小红书风格的分享文案：",
		Fields: []Field{
			req("clothingType", "服装类型"),
			req("style", "风格"),
			opt("brand", "品牌"),
			opt("price", "价格"),
			opt("color", "颜色"),
			opt("material", "材质"),
			opt("fit", "版型"),
			req("matchingTips", "搭配建议"),
			req("scenario", "适合场景"),
			req("usageFeel", "穿着感受"),
		},
		outline: []string{
			"吸引人的标题（包含emoji）",
			"整体搭配介绍",
			"单品推荐（材质、版型等）",
			"搭配技巧和思路",
			"适合场景和人群",
			"穿着感受",
			"购买建议",
			"相关话题标签（至少5个）",
		},
		style: "时尚潮流",
		emphasis: []string{
			"包含互动引导语",
			"提供具体的搭配建议",
			"突出服装的风格特点",
		},
	},
	{
		Scene: SceneTravel,
		Name:  "旅行打卡攻略",
		intro: "请为以下旅行目的地生成一篇小红书风格的打卡攻略文案：",
		Fields: []Field{
			req("destination", "目的地"),
			{Key: "duration", Label: "行程天数", Required: true, Unit: "天"},
			opt("bestTime", "最佳时间"),
			opt("budget", "预算"),
			req("attractions", "主要景点"),
			req("food", "特色美食"),
			opt("accommodation", "住宿推荐"),
			opt("transportation", "交通方式"),
			req("tips", "旅行贴士"),
			req("experience", "个人体验"),
		},
		outline: []string{
			"吸引人的标题（包含emoji）",
			"旅行概览（目的地、天数、预算等）",
			"行程安排推荐",
			"景点打卡攻略",
			"美食推荐",
			"住宿和交通建议",
			"实用贴士",
			"个人感受和总结",
			"相关话题标签（至少5个）",
		},
		style: "轻松愉快",
		emphasis: []string{
			"包含互动引导语",
			"提供详细的实用信息",
			"突出目的地的特色和亮点",
		},
	},
	{
		Scene: SceneFood,
		Name:  "美食探店体验",
		intro: "请为以下餐厅生成一篇小红书风格的探店体验文案：",
		Fields: []Field{
			req("restaurantName", "餐厅名称"),
			req("location", "位置"),
			req("cuisineType", "菜系"),
			opt("priceRange", "价格区间"),
			opt("environment", "环境"),
			opt("service", "服务"),
			req("signatureDishes", "招牌菜"),
			req("taste", "口味"),
			req("recommendation", "推荐理由"),
		},
		outline: []string{
			"吸引人的标题（包含emoji）",
			"餐厅基本信息（位置、环境等）",
			"招牌菜推荐和评价",
			"口味和服务评价",
			"价格和性价比",
			"适合人群和场景",
			"总结推荐",
			"相关话题标签（至少5个）",
		},
		style: "生动诱人",
		emphasis: []string{
			"包含互动引导语",
			"提供详细的菜品评价",
			"突出餐厅的特色和亮点",
		},
	},
	{
		Scene: SceneHome,
		Name:  "家居好物推荐",
		intro: "请为以下家居好物生成一篇小红书风格的推荐文案：",
		Fields: []Field{
			req("productName", "产品名称"),
			req("category", "类别"),
			opt("brand", "品牌"),
			opt("price", "价格"),
			opt("material", "材质"),
			opt("size", "尺寸"),
			req("usageScenario", "使用场景"),
			req("functionality", "功能"),
			req("usageFeel", "使用感受"),
			opt("spaceSaving", "节省空间"),
			req("recommendation", "推荐理由"),
		},
		outline: []string{
			"吸引人的标题（包含emoji）",
			"产品介绍（名称、类别、价格等）",
			"外观设计评价",
			"功能和使用方法",
			"使用感受和效果",
			"适用场景",
			"性价比评价",
			"总结推荐",
			"相关话题标签（至少5个）",
		},
		style: "实用亲切",
		emphasis: []string{
			"包含互动引导语",
			"提供详细的使用体验",
			"突出产品的实用价值",
		},
	},
	{
		Scene: SceneFitness,
		Name:  "健身运动记录",
		intro: "请为以下健身运动生成一篇小红书风格的记录文案：",
		Fields: []Field{
			req("workoutType", "运动类型"),
			{Key: "duration", Label: "运动时长", Unit: "分钟"},
			opt("frequency", "运动频率"),
			opt("equipment", "所需装备"),
			opt("difficulty", "难度"),
			req("benefits", "运动好处"),
			req("experience", "个人体验"),
			req("tips", "注意事项"),
			opt("results", "运动效果"),
		},
		outline: []string{
			"吸引人的标题（包含emoji）",
			"运动介绍（类型、时长、频率等）",
			"运动过程和感受",
			"运动好处和效果",
			"适合人群",
			"注意事项和建议",
			"个人心得和激励",
			"相关话题标签（至少5个）",
		},
		style: "积极向上",
		emphasis: []string{
			"包含互动引导语",
			"提供详细的运动体验",
			"传递正能量和激励信息",
		},
	},
	{
		Scene: SceneParenting,
		Name:  "母婴育儿心得",
		intro: "请为以下母婴育儿主题生成一篇小红书风格的心得分享文案：",
		Fields: []Field{
			req("babyAge", "宝宝年龄"),
			req("topic", "主题"),
			opt("productName", "产品名称"),
			opt("brand", "品牌"),
			opt("price", "价格"),
			req("problem", "问题描述"),
			req("solution", "解决方案"),
			req("experience", "经验分享"),
			req("tips", "小贴士"),
		},
		outline: []string{
			"吸引人的标题（包含emoji）",
			"问题背景介绍",
			"解决方案分享",
			"经验总结",
			"实用小贴士",
			"产品推荐（如果有）",
			"互动和鼓励",
			"相关话题标签（至少5个）",
		},
		style: "温暖亲切",
		emphasis: []string{
			"包含互动引导语",
			"提供实用的育儿经验",
			"传递正能量和支持信息",
		},
	},
	{
		Scene: SceneTech,
		Name:  "数码产品测评",
		intro: "请为以下数码产品生成一篇小红书风格的测评文案：",
		Fields: []Field{
			req("productName", "产品名称"),
			req("brand", "品牌"),
			opt("price", "价格"),
			opt("releaseDate", "上市时间"),
			req("specs", "主要配置"),
			opt("design", "外观设计"),
			req("performance", "性能表现"),
			opt("battery", "续航"),
			opt("camera", "相机"),
			req("userExperience", "用户体验"),
			req("pros", "优点"),
			opt("cons", "缺点"),
			req("recommendation", "推荐理由"),
		},
		outline: []string{
			"吸引人的标题（包含emoji）",
			"产品开箱介绍",
			"外观设计评价",
			"性能和功能测试",
			"用户体验",
			"优缺点分析",
			"适合人群",
			"性价比评价",
			"总结推荐",
			"相关话题标签（至少5个）",
		},
		style: "专业易懂",
		emphasis: []string{
			"包含互动引导语",
			"提供详细的产品信息",
			"评价客观公正，避免过度夸大",
		},
	},
}
