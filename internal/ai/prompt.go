package ai

import (
	"fmt"
	"sort"
	"strings"

	"tokenlens/internal/format"
	"tokenlens/internal/model"
)

// promptTimeframes are the windows surfaced to the analyst model. A subset
// of the Solana analytics windows; BSC analytics carry no per-timeframe
// families so those sections collapse.
var promptTimeframes = []string{"30m", "1h", "4h", "24h"}

const systemMessageEN = `You are a professional cryptocurrency analyst specializing in analyzing crypto markets and on-chain data. Provide concise, data-focused analysis with clear professional insights. Get straight to the point without lengthy introductions. Your response must be in English.

Please ensure your analysis maintains internal consistency. If you identify significant risks based on top-trader data (such as extensive bot activity or potential manipulation), this finding should constrain or negate overly optimistic interpretations of other metrics like trader count when evaluating conclusive indicators such as 'community interest' or 'market sentiment'. Prioritize and highlight these identified key risk factors, avoiding contradictory conclusions across different parts of the analysis or in the final summary.`

const systemMessageZH = `你是一位专业的加密货币分析师，擅长分析币圈和链上数据，并给出中肯的专业建议。分析时应注重数据，讲究专业性，输出内容简洁明了，易于理解。回答要直接切入主题，不需要冗长的引言，只需提供核心观点和结论。回答必须使用中文。

请确保你的分析保持内部一致性。如果你根据顶级交易者数据识别出了显著风险（例如大量机器人活动或潜在操纵），那么在评估整体'社区兴趣'或'市场情绪'等结论性指标时，这一发现应当制约或否定基于其他数据（如交易者数量）得出的过于乐观的解读。请优先考虑并突出这些已识别的关键风险因素，避免在分析的不同部分或最终总结中出现自相矛盾的结论。`

// SystemMessage returns the analyst system prompt for the given language.
func SystemMessage(lang string) string {
	if lang == "zh" {
		return systemMessageZH
	}
	return systemMessageEN
}

// BuildPrompt renders the token bundle into the analysis prompt. Trader
// addresses are masked before leaving the service.
func BuildPrompt(bundle *model.TokenBundle, lang string) string {
	if lang == "zh" {
		return buildPromptZH(bundle)
	}
	return buildPromptEN(bundle)
}

func buildPromptEN(b *model.TokenBundle) string {
	ov := b.TokenOverview
	var sb strings.Builder

	sb.WriteString("Please provide a concise (300-400 words) integrated basic analysis **in English** based on the following token data. Please merge insights from all aspects and do not list analysis points one by one.\n\n")

	sb.WriteString("### Token Core Info\n")
	fmt.Fprintf(&sb, "- Name/Symbol: %s (%s)\n", ov.Name, ov.Symbol)
	fmt.Fprintf(&sb, "- Price: %s (24h Change: %s)\n", ov.PriceFormatted, ov.PriceChange24h)
	fmt.Fprintf(&sb, "- Circulating Supply: %s\n", ov.CirculatingSupplyFormatted)
	if ov.CirculationRatio != nil {
		fmt.Fprintf(&sb, "- Circulation Ratio: %d%%\n", *ov.CirculationRatio)
	}
	fmt.Fprintf(&sb, "- LP Liquidity: %s\n", ov.LiquidityFormatted)
	fmt.Fprintf(&sb, "- Market Cap: %s\n", ov.MarketCapFormatted)
	fmt.Fprintf(&sb, "- FDV: %s\n", ov.FdvFormatted)
	if b.Chain == model.ChainSolana {
		fmt.Fprintf(&sb, "- Total Holders: %s\n", holderCount(b.HolderStats.TotalHolders, "Unknown"))
	}
	fmt.Fprintf(&sb, "- Possible Spam: %s\n", yesNo(b.Metadata.PossibleSpam, "Yes", "No"))
	fmt.Fprintf(&sb, "- Security Score: %s (Verified Contract: %s)\n",
		scoreOrUnknown(b.Metadata.SecurityScore, "Unknown"), yesNo(b.Metadata.VerifiedContract, "Yes", "No"))

	if b.Chain != model.ChainSolana {
		sb.WriteString("\n### Holder Analysis\n")
		fmt.Fprintf(&sb, "- Total Holders: %s\n", holderCount(b.HolderStats.TotalHolders, "Unknown"))
		fmt.Fprintf(&sb, "- 30d Holder Change: %s%%\n", changePercent(b.HolderStats.HolderChange, "30d"))
		fmt.Fprintf(&sb, "- Top 10 Supply %%: %s%%\n", supplyPercent(b.HolderStats.HolderSupply, "top10", "Unknown"))
		fmt.Fprintf(&sb, "- Holder Distribution: Whales: %d, Shrimps: %d\n",
			b.HolderStats.HolderDistribution["whales"], b.HolderStats.HolderDistribution["shrimps"])
		fmt.Fprintf(&sb, "- Main Acquisition: %s\n", mainAcquisition(b.HolderStats.HoldersByAcquisition, "Unknown"))
	}

	sb.WriteString("\n### Trading Activity\n")
	buyers, sellers, buys, sells := activityCounters(b.TokenAnalytics)
	fmt.Fprintf(&sb, "- 24h Buyers/Sellers: %s / %s\n", buyers, sellers)
	fmt.Fprintf(&sb, "- 24h Buy/Sell Orders: %s / %s\n", buys, sells)
	writeTimeframeSectionsEN(&sb, b.TokenAnalytics)

	sb.WriteString("\n### Top Traders (up to 10)\n")
	if len(b.TopTraders) == 0 {
		sb.WriteString("No valid top trader data available for this token.\n")
	}
	for i, tr := range b.TopTraders {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&sb, "- Trader %d (Address: %s): Total: %s, Trades: %s (Buy/Sell: %s/%s), Tags: %s\n",
			i+1, format.MaskAddress(tr.Address),
			tr.Total.AmountUSDFormatted, holderCount(tr.Total.Count, "N/A"),
			holderCount(tr.Buy.Count, "N/A"), holderCount(tr.Sell.Count, "N/A"),
			tagsOr(tr.Tags, "None"))
	}

	sb.WriteString("\n### Community Links\n")
	sb.WriteString(communityLinks(b.Metadata.Links, "- No community links data"))

	sb.WriteString("\n\nBased on all the information above, provide an overall fundamental assessment **in English**. Focus on identifying the 1-2 most significant potential risks and 1-2 key opportunities by *connecting insights* from different data sections (e.g., holder concentration + trading data; security score + market cap). Justify these points clearly. Regarding community links, only note their presence and do not infer activity levels solely from them; correlate with holder/trader data cautiously if applicable. **Critically evaluate 'Trading Activity' and 'Top Traders': examine trader behavior patterns and tags. High transaction volume or counts dominated by bots (`sniper-bot`, `bot`) may indicate artificial liquidity or manipulation risk, NOT necessarily genuine market interest.** Evaluate the trading activity trends across different timeframes to identify short-term momentum or potential trend changes. Also consider the circulation ratio in relation to market cap and trading volume to assess potential supply-side risks. Avoid simply summarizing each section and strive for insightful judgment based on the combined data.")

	return sb.String()
}

func buildPromptZH(b *model.TokenBundle) string {
	ov := b.TokenOverview
	var sb strings.Builder

	sb.WriteString("请基于以下提供的代币数据，生成一段简洁（300-400字）、综合性的基本盘分析。请融合对各方面信息的考量，不要逐条罗列分析点。**请使用中文回答**。\n\n")

	sb.WriteString("### 代币核心信息\n")
	fmt.Fprintf(&sb, "- 名称/符号: %s (%s)\n", ov.Name, ov.Symbol)
	fmt.Fprintf(&sb, "- 价格: %s (24h 变化: %s)\n", ov.PriceFormatted, ov.PriceChange24h)
	fmt.Fprintf(&sb, "- 流通供应量: %s\n", ov.CirculatingSupplyFormatted)
	if ov.CirculationRatio != nil {
		fmt.Fprintf(&sb, "- 流通比例: %d%%\n", *ov.CirculationRatio)
	}
	fmt.Fprintf(&sb, "- LP 流动性: %s\n", ov.LiquidityFormatted)
	fmt.Fprintf(&sb, "- 市值: %s\n", ov.MarketCapFormatted)
	fmt.Fprintf(&sb, "- 完全稀释估值 (FDV): %s\n", ov.FdvFormatted)
	if b.Chain == model.ChainSolana {
		fmt.Fprintf(&sb, "- 总持有者数量: %s\n", holderCount(b.HolderStats.TotalHolders, "暂无数据"))
	}
	fmt.Fprintf(&sb, "- 可能为垃圾币: %s\n", yesNo(b.Metadata.PossibleSpam, "是", "否"))
	fmt.Fprintf(&sb, "- 安全评分: %s (合约已验证: %s)\n",
		scoreOrUnknown(b.Metadata.SecurityScore, "未知"), yesNo(b.Metadata.VerifiedContract, "是", "否"))

	if b.Chain != model.ChainSolana {
		sb.WriteString("\n### 持有者分析\n")
		fmt.Fprintf(&sb, "- 总持有者: %s\n", holderCount(b.HolderStats.TotalHolders, "未知"))
		fmt.Fprintf(&sb, "- 30天持有者变化: %s%%\n", changePercent(b.HolderStats.HolderChange, "30d"))
		fmt.Fprintf(&sb, "- Top 10 持仓占比: %s%%\n", supplyPercent(b.HolderStats.HolderSupply, "top10", "未知"))
		fmt.Fprintf(&sb, "- 持有者分布: 鲸鱼: %d, 虾: %d\n",
			b.HolderStats.HolderDistribution["whales"], b.HolderStats.HolderDistribution["shrimps"])
		fmt.Fprintf(&sb, "- 主要获取方式: %s\n", mainAcquisition(b.HolderStats.HoldersByAcquisition, "未知"))
	}

	sb.WriteString("\n### 交易分析\n")
	buyers, sellers, buys, sells := activityCounters(b.TokenAnalytics)
	fmt.Fprintf(&sb, "- 24h 买家/卖家数: %s / %s\n", buyers, sellers)
	fmt.Fprintf(&sb, "- 24h 买/卖次数: %s / %s\n", buys, sells)
	writeTimeframeSectionsZH(&sb, b.TokenAnalytics)

	sb.WriteString("\n### 顶级交易者 (最多10个)\n")
	if len(b.TopTraders) == 0 {
		sb.WriteString("此代币当前无有效的顶级交易者数据。\n")
	}
	for i, tr := range b.TopTraders {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&sb, "- 交易者 %d (地址: %s): 总额: %s, 总次数: %s (买/卖: %s/%s), 标签: %s\n",
			i+1, format.MaskAddress(tr.Address),
			tr.Total.AmountUSDFormatted, holderCount(tr.Total.Count, "N/A"),
			holderCount(tr.Buy.Count, "N/A"), holderCount(tr.Sell.Count, "N/A"),
			tagsOr(tr.Tags, "无"))
	}

	sb.WriteString("\n### 社区链接\n")
	sb.WriteString(communityLinks(b.Metadata.Links, "- 无社区链接数据"))

	sb.WriteString("\n\n根据以上所有信息，请给出整体的基本面评估。**请用中文回答**。请着重于通过**关联不同维度的数据**（例如，结合持有者集中度与交易数据；结合安全评分与市值等）来识别 1-2 个最主要的**潜在风险**和 1-2 个**关键机会**，并清晰阐述判断依据。关于社区链接，仅需提及存在与否，**切勿**仅凭链接推断社区活跃度或情绪。**请批判性地评估'交易分析'和'顶级交易者'数据：分析交易者行为模式和标签。由机器人主导的高频交易或大量的买卖次数（标签含'sniper-bot'或'bot'），可能暗示人为流动性或操纵风险，而*不一定*代表真实的市场兴趣。**考察不同时间段的交易活动趋势，识别短期动量或潜在趋势变化。同时，分析流通比例与市值和交易量的关系，评估供应侧的潜在风险。最终评估应避免简单罗列各部分结论，力求提供基于全局信息的、**有洞察力的判断**。")

	return sb.String()
}

// activityCounters derives the headline 24h counters from whichever
// analytics variant the bundle carries.
func activityCounters(analytics model.TokenAnalytics) (buyers, sellers, buys, sells string) {
	buyers, sellers, buys, sells = "0", "0", "0", "0"
	switch a := analytics.(type) {
	case *model.BscAnalytics:
		if a == nil {
			return
		}
		buyers = numOr(a.TotalBuyers["24h"], "0")
		sellers = numOr(a.TotalSellers["24h"], "0")
		buys = numOr(a.TotalBuys["24h"], "0")
		sells = numOr(a.TotalSells["24h"], "0")
	case *model.SolanaAnalytics:
		if a == nil {
			return
		}
		// Birdeye reports trade counts, not distinct trader counts, so the
		// same families feed both lines.
		buyers = a.BuyCounts["24h"]
		sellers = a.SellCounts["24h"]
		buys = a.BuyCounts["24h"]
		sells = a.SellCounts["24h"]
	}
	return
}

func writeTimeframeSectionsEN(sb *strings.Builder, analytics model.TokenAnalytics) {
	a, ok := analytics.(*model.SolanaAnalytics)
	if !ok || a == nil {
		return
	}
	sb.WriteString("\n### Price Change % by Timeframe\n")
	for _, tf := range promptTimeframes {
		fmt.Fprintf(sb, "- %s: %s\n", tf, a.PriceChangePercent[tf])
	}
	sb.WriteString("\n### Trade Volume by Timeframe\n")
	for _, tf := range promptTimeframes {
		fmt.Fprintf(sb, "- %s: Buy %s / Sell %s\n", tf, a.BuyVolumeUSD[tf], a.SellVolumeUSD[tf])
	}
	sb.WriteString("\n### Wallet Activity by Timeframe\n")
	for _, tf := range promptTimeframes {
		fmt.Fprintf(sb, "- %s: %s wallets (%s change)\n", tf, a.UniqueWallets[tf], a.UniqueWalletsChangePercent[tf])
	}
	sb.WriteString("\n### Trade Counts by Timeframe\n")
	for _, tf := range promptTimeframes {
		fmt.Fprintf(sb, "- %s: %s buys / %s sells\n", tf, a.BuyCounts[tf], a.SellCounts[tf])
	}
}

func writeTimeframeSectionsZH(sb *strings.Builder, analytics model.TokenAnalytics) {
	a, ok := analytics.(*model.SolanaAnalytics)
	if !ok || a == nil {
		return
	}
	sb.WriteString("\n### 各时间段价格变化百分比\n")
	for _, tf := range promptTimeframes {
		fmt.Fprintf(sb, "- %s: %s\n", tf, a.PriceChangePercent[tf])
	}
	sb.WriteString("\n### 各时间段交易量\n")
	for _, tf := range promptTimeframes {
		fmt.Fprintf(sb, "- %s: 买入 %s / 卖出 %s\n", tf, a.BuyVolumeUSD[tf], a.SellVolumeUSD[tf])
	}
	sb.WriteString("\n### 各时间段钱包活动\n")
	for _, tf := range promptTimeframes {
		fmt.Fprintf(sb, "- %s: %s 钱包数 (%s 变化)\n", tf, a.UniqueWallets[tf], a.UniqueWalletsChangePercent[tf])
	}
	sb.WriteString("\n### 各时间段交易次数\n")
	for _, tf := range promptTimeframes {
		fmt.Fprintf(sb, "- %s: %s 买入 / %s 卖出\n", tf, a.BuyCounts[tf], a.SellCounts[tf])
	}
}

func yesNo(v *bool, yes, no string) string {
	if v != nil && *v {
		return yes
	}
	return no
}

func holderCount(v *int64, fallback string) string {
	if v == nil {
		return fallback
	}
	return fmt.Sprintf("%d", *v)
}

func numOr(v *float64, fallback string) string {
	if v == nil {
		return fallback
	}
	return fmt.Sprintf("%g", *v)
}

func scoreOrUnknown(v *float64, fallback string) string {
	if v == nil {
		return fallback
	}
	return fmt.Sprintf("%g", *v)
}

func changePercent(m map[string]model.HolderChange, tf string) string {
	if hc, ok := m[tf]; ok && hc.ChangePercent != nil {
		return fmt.Sprintf("%g", *hc.ChangePercent)
	}
	return "0"
}

func supplyPercent(m map[string]model.HolderSupply, cohort, fallback string) string {
	if hs, ok := m[cohort]; ok && hs.SupplyPercent != nil {
		return fmt.Sprintf("%g", *hs.SupplyPercent)
	}
	return fallback
}

// mainAcquisition lists the two largest acquisition methods.
func mainAcquisition(m map[string]*int64, fallback string) string {
	type entry struct {
		method string
		count  int64
	}
	entries := make([]entry, 0, len(m))
	for method, count := range m {
		if count != nil {
			entries = append(entries, entry{method, *count})
		}
	}
	if len(entries) == 0 {
		return fallback
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].method < entries[j].method
	})
	if len(entries) > 2 {
		entries = entries[:2]
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s: %d", e.method, e.count)
	}
	return strings.Join(parts, ", ")
}

func tagsOr(tags []string, fallback string) string {
	if len(tags) == 0 {
		return fallback
	}
	return strings.Join(tags, ", ")
}

// communityLinks renders the non-empty metadata links, skipping the
// provider's own backlink.
func communityLinks(links map[string]*string, fallback string) string {
	keys := make([]string, 0, len(links))
	for k, v := range links {
		if k == "moralis" || v == nil || *v == "" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return fallback
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = fmt.Sprintf("- %s: %s", capitalize(k), *links[k])
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
